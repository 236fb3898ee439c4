package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"LogAnalyzer/internal/models"
)

// FileStore хранит загруженные файлы в локальном каталоге.
// Имена генерируются случайно, чтобы исключить коллизии загрузок.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (f *FileStore) Save(r io.Reader, filename, userID string) (string, error) {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir %s: %w", f.Dir, err)
	}
	name := uuid.NewString() + filepath.Ext(filename)
	path := filepath.Join(f.Dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func (f *FileStore) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (f *FileStore) List(userID string) ([]models.FileInfo, error) {
	entries, err := os.ReadDir(f.Dir)
	if os.IsNotExist(err) {
		return []models.FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", f.Dir, err)
	}
	files := make([]models.FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, models.FileInfo{
			Filename:   e.Name(),
			Size:       info.Size(),
			UploadedAt: info.ModTime().Unix(),
			Path:       filepath.Join(f.Dir, e.Name()),
		})
	}
	return files, nil
}

func (f *FileStore) Delete(filename, userID string) error {
	// Принимаем только базовое имя, чтобы нельзя было выйти из каталога.
	path := filepath.Join(f.Dir, filepath.Base(filename))
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}
	return os.Remove(path)
}
