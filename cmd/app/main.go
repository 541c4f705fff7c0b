package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/iwtcode/buildver"
	"github.com/iwtcode/buildver/buildinfo"
)

func main() {
	if err := run(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

// run выполняет приложение; отложенные Close и stop срабатывают до выхода из процесса.
func run() error {
	// 1) Загрузка конфигурации
	err := godotenv.Load("./.env")
	if err != nil {
		log.Printf("Warning: Could not load .env file. Using default values or environment variables: %v", err)
	}

	cfg := buildver.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2) Метаданные сборки
	info, err := buildinfo.Resolve(cfg.BuildInfoFile)
	if err != nil {
		return fmt.Errorf("ошибка чтения метаданных сборки: %w", err)
	}

	client, err := buildver.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("ошибка создания клиента: %w", err)
	}
	defer client.Close()
	logger := client.GetLogger()
	logger.WithFields(logrus.Fields{
		"logbook":      cfg.LogbookName,
		"message_size": cfg.MessageSize,
	}).Info("Конфигурация загружена")

	// 3) Стартовая запись версии сборки
	report, err := client.Init(ctx, info)
	if err != nil {
		logger.WithError(err).Error("Стартовая последовательность прервана")
		return err
	}
	printAsJSON("InitReport", report)

	if cfg.MetricsAddr == "" {
		return nil
	}

	// 4) Метрики сборки до остановки процесса
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(client.Metrics(), promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", cfg.MetricsAddr).Info("Метрики доступны по /metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("Ошибка HTTP сервера метрик")
		return err
	}
	return nil
}

// printAsJSON форматирует данные в JSON и выводит в лог
func printAsJSON(name string, data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Printf("Ошибка маршалинга JSON для %s: %v", name, err)
		return
	}
	fmt.Printf("--- %s ---\n%s\n", name, string(jsonData))
}
