package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch следит за файлом конфигурации и при каждом его изменении
// перечитывает настройки. Успешно перечитанная и валидная конфигурация
// передаётся в onChange; битая конфигурация логируется и пропускается,
// сервис продолжает работать на предыдущей. Возврат — после отмены ctx.
func Watch(ctx context.Context, path string, logger *zap.Logger, onChange func(*Config)) error {
	lg := logger.Named("config-watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Следим за каталогом, а не за файлом: редакторы и оркестраторы
	// часто подменяют файл целиком, и watch на сам файл теряется.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	lg.Info("Запущено наблюдение за конфигурацией", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				lg.Error("Конфигурация не перечитана", zap.Error(err))
				continue
			}
			lg.Info("Конфигурация обновлена", zap.String("path", target))
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			lg.Error("Ошибка наблюдателя конфигурации", zap.Error(err))
		}
	}
}
