package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"LogAnalyzer/internal/config"
	"LogAnalyzer/internal/logger"
	"LogAnalyzer/internal/server"
	"LogAnalyzer/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML-файлу конфигурации (необязателен)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Логгер ещё не поднят: конфигурация нужна для его настройки.
		log.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	rootLogger, err := logger.InitZap(&cfg.Logging)
	if err != nil {
		log.Fatalf("ошибка инициализации логгера: %v", err)
	}
	lg := rootLogger.Named("main")
	defer lg.Sync()
	lg.Info("Сервис LogAnalyzer стартует…")

	var store storage.Store
	switch cfg.Storage.Backend {
	case "redis":
		redisStore, err := storage.NewRedisStore(cfg.RedisAddr(), cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
		if err != nil {
			lg.Fatal("Ошибка подключения к Redis", zap.String("addr", cfg.RedisAddr()), zap.Error(err))
		}
		store = redisStore
		lg.Info("Хранилище загрузок: Redis", zap.String("addr", cfg.RedisAddr()))
	default:
		store = storage.NewFileStore(cfg.Upload.Dir)
		lg.Info("Хранилище загрузок: локальный каталог", zap.String("dir", cfg.Upload.Dir))
	}

	srv := server.New(cfg, store, rootLogger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			lg.Error("HTTP-сервер завершился с ошибкой", zap.Error(err))
		}
	}()

	if *configPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := config.Watch(ctx, *configPath, rootLogger, srv.UpdateConfig)
			if err != nil && err != context.Canceled {
				lg.Error("Наблюдение за конфигурацией остановлено", zap.Error(err))
			}
		}()
	}

	<-stop
	lg.Info("Получен сигнал остановки, начинаем завершение работы")
	cancel()
	wg.Wait()
	lg.Info("Сервис завершил работу")
}
