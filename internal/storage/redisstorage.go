package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"LogAnalyzer/internal/models"
)

// RedisStore хранит содержимое загруженных файлов в Redis.
// Идентификатор файла имеет вид "redis://files/<userID>/<имя>";
// под тем же ключом без схемы лежат байты файла, список файлов
// пользователя — в set, время загрузки — в hash.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore создаёт клиента и проверяет доступность Redis.
// Недоступное хранилище — ошибка конструктора, а не отложенный сбой:
// выбор бэкенда делается явной проверкой возможностей, без fallback
// по исключению.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisStore{client: rdb, prefix: "files"}, nil
}

func (r *RedisStore) indexKey(userID string) string {
	return r.prefix + ":index:" + userID
}

func (r *RedisStore) metaKey(userID string) string {
	return r.prefix + ":meta:" + userID
}

func (r *RedisStore) Save(reader io.Reader, filename, userID string) (string, error) {
	ctx := context.Background()
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read upload %s: %w", filename, err)
	}

	name := uuid.NewString() + path.Ext(filename)
	key := fmt.Sprintf("%s/%s/%s", r.prefix, userID, name)

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return "", fmt.Errorf("redis set %s: %w", key, err)
	}
	if err := r.client.SAdd(ctx, r.indexKey(userID), name).Err(); err != nil {
		return "", fmt.Errorf("redis index %s: %w", key, err)
	}
	if err := r.client.HSet(ctx, r.metaKey(userID), name, time.Now().Unix()).Err(); err != nil {
		return "", fmt.Errorf("redis meta %s: %w", key, err)
	}
	return RemotePrefix + key, nil
}

func (r *RedisStore) Open(p string) (io.ReadCloser, error) {
	ctx := context.Background()
	key := strings.TrimPrefix(p, RemotePrefix)
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("file %s: not found", p)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", p, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *RedisStore) List(userID string) ([]models.FileInfo, error) {
	ctx := context.Background()
	names, err := r.client.SMembers(ctx, r.indexKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list %s: %w", userID, err)
	}
	files := make([]models.FileInfo, 0, len(names))
	for _, name := range names {
		key := fmt.Sprintf("%s/%s/%s", r.prefix, userID, name)
		size, err := r.client.StrLen(ctx, key).Result()
		if err != nil {
			continue
		}
		var uploadedAt int64
		if raw, err := r.client.HGet(ctx, r.metaKey(userID), name).Result(); err == nil {
			uploadedAt, _ = strconv.ParseInt(raw, 10, 64)
		}
		files = append(files, models.FileInfo{
			Filename:   name,
			Size:       size,
			UploadedAt: uploadedAt,
			Path:       RemotePrefix + key,
		})
	}
	return files, nil
}

func (r *RedisStore) Delete(filename, userID string) error {
	ctx := context.Background()
	name := path.Base(strings.TrimPrefix(filename, RemotePrefix))
	key := fmt.Sprintf("%s/%s/%s", r.prefix, userID, name)

	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("file %s: not found", filename)
	}
	r.client.SRem(ctx, r.indexKey(userID), name)
	r.client.HDel(ctx, r.metaKey(userID), name)
	return nil
}
