package storage

import (
	"io"
	"strings"

	"LogAnalyzer/internal/models"
)

// RemotePrefix — схема идентификаторов файлов, лежащих в Redis.
// Локальные файлы адресуются обычным путём файловой системы.
const RemotePrefix = "redis://"

// Store абстрагирует хранилище загруженных лог-файлов: локальный диск
// или удалённое объектное хранилище. Save возвращает идентификатор,
// который затем передаётся в Open.
type Store interface {
	Save(r io.Reader, filename, userID string) (string, error)
	Open(path string) (io.ReadCloser, error)
	List(userID string) ([]models.FileInfo, error)
	Delete(filename, userID string) error
}

// IsRemote сообщает, указывает ли идентификатор на удалённое хранилище.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, RemotePrefix)
}
