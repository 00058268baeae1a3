package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "input"),
		filepath.Join(root, "output"),
		filepath.Join(root, "input_archive"),
		filepath.Join(root, "logs"),
	)
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFileManager_DiscoverInputFiles(t *testing.T) {
	t.Run("Should list deck lists sorted and skip other files", func(t *testing.T) {
		fm := newTestManager(t)
		writeFile(t, filepath.Join(fm.InputDir, "b.csv"), "x")
		writeFile(t, filepath.Join(fm.InputDir, "a.XLSX"), "x")
		writeFile(t, filepath.Join(fm.InputDir, "notes.txt"), "x")
		writeFile(t, filepath.Join(fm.InputDir, ".hidden.csv"), "x")
		writeFile(t, filepath.Join(fm.InputDir, "~$a.xlsx"), "x")
		require.NoError(t, os.Mkdir(filepath.Join(fm.InputDir, "sub.csv"), 0o755))

		files, err := fm.DiscoverInputFiles()
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(fm.InputDir, "a.XLSX"),
			filepath.Join(fm.InputDir, "b.csv"),
		}, files)
	})

	t.Run("Should fail when the input directory is missing", func(t *testing.T) {
		fm := NewFileManager(filepath.Join(t.TempDir(), "missing"), "", "", "")
		_, err := fm.DiscoverInputFiles()
		assert.Error(t, err)
	})
}

func TestFileManager_ArchiveInputFile(t *testing.T) {
	t.Run("Should move the file to the archive directory", func(t *testing.T) {
		fm := newTestManager(t)
		src := filepath.Join(fm.InputDir, "deck.csv")
		writeFile(t, src, "Count,Name\n1,Opt\n")

		archived, err := fm.ArchiveInputFile(src)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(fm.InputArchiveDir, "deck.csv"), archived)
		assert.False(t, FileExists(src))
		assert.True(t, FileExists(archived))
	})

	t.Run("Should add a suffix when the archived name is taken", func(t *testing.T) {
		fm := newTestManager(t)
		writeFile(t, filepath.Join(fm.InputArchiveDir, "deck.csv"), "old")
		src := filepath.Join(fm.InputDir, "deck.csv")
		writeFile(t, src, "new")

		archived, err := fm.ArchiveInputFile(src)
		require.NoError(t, err)
		assert.NotEqual(t, filepath.Join(fm.InputArchiveDir, "deck.csv"), archived)
		assert.Regexp(t, regexp.MustCompile(`deck_[0-9a-f]{8}\.csv$`), archived)

		data, err := os.ReadFile(archived)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("Should use dated subdirectories when enabled", func(t *testing.T) {
		fm := newTestManager(t)
		fm.UseTimestampSubdirs = true
		src := filepath.Join(fm.InputDir, "deck.csv")
		writeFile(t, src, "x")

		archived, err := fm.ArchiveInputFile(src)
		require.NoError(t, err)
		now := time.Now()
		assert.Contains(t, archived, filepath.Join(fm.InputArchiveDir, now.Format("2006"), now.Format("01")))
	})

	t.Run("Should leave the file in place when archiving is disabled", func(t *testing.T) {
		fm := newTestManager(t)
		fm.ArchiveOnSuccess = false
		src := filepath.Join(fm.InputDir, "deck.csv")
		writeFile(t, src, "x")

		archived, err := fm.ArchiveInputFile(src)
		require.NoError(t, err)
		assert.Equal(t, src, archived)
		assert.True(t, FileExists(src))
	})
}

func TestCleanOldArchives(t *testing.T) {
	t.Run("Should remove only files older than the retention", func(t *testing.T) {
		dir := t.TempDir()
		old := filepath.Join(dir, "old.csv")
		fresh := filepath.Join(dir, "fresh.csv")
		writeFile(t, old, "x")
		writeFile(t, fresh, "x")
		past := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.Chtimes(old, past, past))

		removed, err := CleanOldArchives(dir, 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
		assert.False(t, FileExists(old))
		assert.True(t, FileExists(fresh))
	})

	t.Run("Should ignore a missing archive directory", func(t *testing.T) {
		removed, err := CleanOldArchives(filepath.Join(t.TempDir(), "missing"), time.Hour)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}

func TestGenerateOutputFileName(t *testing.T) {
	t.Run("Should expand placeholders and force the extension", func(t *testing.T) {
		name := GenerateOutputFileName("{vendor}_{source}_{uuid}.csv", map[string]string{
			"vendor": "ManaBox",
			"source": "my deck",
		}, ".xlsx")
		assert.Regexp(t, regexp.MustCompile(`^manabox_my_deck_[0-9a-f-]{36}\.xlsx$`), name)
	})

	t.Run("Should append the extension when the format has none", func(t *testing.T) {
		name := GenerateOutputFileName("{date}", nil, ".csv")
		assert.Equal(t, time.Now().Format("20060102")+".csv", name)
	})

	t.Run("Should produce unique names", func(t *testing.T) {
		a := GenerateOutputFileName("{uuid}", nil, ".csv")
		b := GenerateOutputFileName("{uuid}", nil, ".csv")
		assert.NotEqual(t, a, b)
	})
}

func TestWriteErrorLog(t *testing.T) {
	t.Run("Should write every entry with its location", func(t *testing.T) {
		dir := t.TempDir()
		path, err := WriteErrorLog([]ErrorLogEntry{
			{
				Timestamp:    time.Now(),
				FileName:     "deck.csv",
				ErrorType:    "invalid format",
				ErrorMessage: "unknown condition",
				Stage:        "read",
				RowNumber:    3,
				LineNumber:   4,
				FieldName:    "Condition",
				FieldValue:   "Damaged",
			},
		}, dir, "input/deck.csv")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(filepath.Base(path), "errors_deck_"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		content := string(data)
		assert.Contains(t, content, "Total Errors: 1")
		assert.Contains(t, content, "Row:        3")
		assert.Contains(t, content, "Column:     Condition")
		assert.Contains(t, content, `Value:      "Damaged"`)
	})

	t.Run("Should write nothing for no entries", func(t *testing.T) {
		path, err := WriteErrorLog(nil, t.TempDir(), "deck.csv")
		require.NoError(t, err)
		assert.Empty(t, path)
	})
}

func TestWriteSummaryLog(t *testing.T) {
	t.Run("Should include statistics and file lists", func(t *testing.T) {
		start := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
		path, err := WriteSummaryLog(ProcessingSummary{
			RunID:           "run-1",
			StartTime:       start,
			EndTime:         start.Add(2 * time.Second),
			TargetVendor:    "ManaBox",
			TotalFiles:      2,
			SuccessfulFiles: 1,
			FailedFiles:     1,
			TotalRows:       10,
			CardsWritten:    9,
			RowsSkipped:     1,
			ProcessedFiles: []ProcessedFileInfo{
				{InputFile: "a.csv", SourceVendor: "Moxfield", OutputFile: "out.csv", Rows: 10, Cards: 9, Skipped: 1},
			},
			FailedFilesList: []FailedFileInfo{
				{InputFile: "b.csv", ErrorMessage: "missing column"},
			},
		}, t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "processing_summary_20240115_143000.txt", filepath.Base(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		content := string(data)
		assert.Contains(t, content, "Run ID:         run-1")
		assert.Contains(t, content, "Duration:       2s")
		assert.Contains(t, content, "Cards:        9 of 10 rows (1 skipped)")
		assert.Contains(t, content, "Error: missing column")
	})
}
