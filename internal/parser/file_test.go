package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"LogAnalyzer/internal/models"
	"LogAnalyzer/internal/storage"
)

// memStore — хранилище в памяти для проверки удалённого пути разбора.
type memStore struct {
	data map[string]string
}

func (m *memStore) Save(r io.Reader, filename, userID string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := "files/" + userID + "/" + filename
	m.data[key] = string(b)
	return storage.RemotePrefix + key, nil
}

func (m *memStore) Open(path string) (io.ReadCloser, error) {
	key := strings.TrimPrefix(path, storage.RemotePrefix)
	content, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("file %s: not found", key)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (m *memStore) List(userID string) ([]models.FileInfo, error) { return nil, nil }
func (m *memStore) Delete(filename, userID string) error          { return nil }

func writeTempLog(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))
	return path
}

func newTestFileParser() *FileParser {
	return NewFileParser(&memStore{data: map[string]string{}}, zap.NewNop())
}

func TestParseFileLocal(t *testing.T) {
	lines := []string{
		`{"level":"error","message":"boom"}`,
		"",
		"   ",
		"2023-01-15 08:30:00 INFO all good",
	}
	fp := newTestFileParser()

	records, err := fp.ParseFile(writeTempLog(t, lines), Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.FormatJSON, records[0].Format)
	assert.Equal(t, 1, records[0].LineNumber)
	assert.Equal(t, models.FormatGeneric, records[1].Format)
	assert.Equal(t, 4, records[1].LineNumber)
}

func TestParseFileMaxLines(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = fmt.Sprintf("2023-01-15 08:30:00 INFO message %d", i)
	}
	fp := newTestFileParser()

	records, err := fp.ParseFile(writeTempLog(t, lines), Options{MaxLines: 10})
	require.NoError(t, err)
	assert.Len(t, records, 10)

	// Файл короче лимита отдаётся целиком.
	records, err = fp.ParseFile(writeTempLog(t, lines), Options{MaxLines: 500})
	require.NoError(t, err)
	assert.Len(t, records, 100)
}

func TestParseFileFullSampleRateIsExhaustive(t *testing.T) {
	lines := make([]string, 50)
	for i := range lines {
		lines[i] = fmt.Sprintf("2023-01-15 08:30:00 INFO message %d", i)
	}
	fp := newTestFileParser()
	path := writeTempLog(t, lines)

	first, err := fp.ParseFile(path, Options{SampleRate: 1.0})
	require.NoError(t, err)
	second, err := fp.ParseFile(path, Options{SampleRate: 1.0})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 50)
}

func TestParseFileSampling(t *testing.T) {
	lines := make([]string, 1000)
	for i := range lines {
		lines[i] = fmt.Sprintf("2023-01-15 08:30:00 INFO message %d", i)
	}
	fp := newTestFileParser()

	records, err := fp.ParseFile(writeTempLog(t, lines), Options{SampleRate: 0.1})
	require.NoError(t, err)
	// Сэмплирование вероятностное; проверяем лишь, что оно действительно
	// сокращает выборку, а не точное количество.
	assert.Less(t, len(records), 1000)
	assert.Greater(t, len(records), 0)
}

func TestParseFileMissing(t *testing.T) {
	fp := newTestFileParser()
	path := filepath.Join(t.TempDir(), "nope.log")

	_, err := fp.ParseFile(path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestParseFileInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bin.log")
	require.NoError(t, os.WriteFile(path, []byte("ERROR bad \xff\xfe bytes\n"), 0o644))
	fp := newTestFileParser()

	records, err := fp.ParseFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ERROR", records[0].Level)
}

func TestParseFileRemote(t *testing.T) {
	store := &memStore{data: map[string]string{}}
	fp := NewFileParser(store, zap.NewNop())

	content := "2023-01-15 08:30:00 ERROR first\n\n2023-01-15 08:31:00 INFO second\n"
	path, err := store.Save(strings.NewReader(content), "app.log", "u1")
	require.NoError(t, err)
	require.True(t, storage.IsRemote(path))

	records, err := fp.ParseFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ERROR", records[0].Level)
	assert.Equal(t, 1, records[0].LineNumber)
	assert.Equal(t, 3, records[1].LineNumber)
}

func TestParseFileRemoteMissing(t *testing.T) {
	fp := newTestFileParser()

	_, err := fp.ParseFile(storage.RemotePrefix+"files/u1/ghost.log", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost.log")
}
