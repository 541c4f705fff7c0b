package buildver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/iwtcode/buildver/arlog"
	"github.com/iwtcode/buildver/buildinfo"
	"github.com/iwtcode/buildver/cstring"
	"github.com/iwtcode/buildver/export"
	"github.com/iwtcode/buildver/models"
)

// ExportName - имя, под которым метаданные сборки публикуются для внешней регистрации.
const ExportName = "BuildVersion"

const metricsNamespace = "buildver"

// Stage - шаг стартовой последовательности.
type Stage int

const (
	StageIdle Stage = iota
	StageRequestIdent
	StageBuildMessage
	StageRequestWrite
	StageRelease
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "IDLE"
	case StageRequestIdent:
		return "REQUEST_IDENT"
	case StageBuildMessage:
		return "BUILD_MESSAGE"
	case StageRequestWrite:
		return "REQUEST_WRITE"
	case StageRelease:
		return "RELEASE"
	case StageDone:
		return "DONE"
	default:
		return fmt.Sprintf("STAGE(%d)", int(s))
	}
}

// Client является основной точкой входа: он пишет версию сборки в журнал
// контроллера и публикует метаданные сборки.
type Client struct {
	config   *Config
	logger   *logrus.Logger
	logFile  *os.File
	logbook  *arlog.Client
	registry *export.Registry
	metrics  *prometheus.Registry
}

// New создает клиента поверх подсистемы журналов rt.
// При rt == nil используется arlog.MemoryRuntime.
func New(cfg *Config, rt arlog.Runtime) (*Client, error) {
	if cfg.MessageSize <= 0 {
		return nil, fmt.Errorf("message size must be positive, got %d", cfg.MessageSize)
	}

	logger := logrus.New()
	var logFile *os.File

	if cfg.LogLevel == "off" || cfg.LogLevel == "none" {
		logger.SetOutput(io.Discard)
	} else {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)

		var output io.Writer = os.Stdout
		if cfg.LogsDir != "" {
			logFile, err = openLogFile(cfg.LogsDir)
			if err != nil {
				return nil, err
			}
			output = io.MultiWriter(os.Stdout, logFile)
		}
		logger.SetOutput(output)
	}

	// Настраиваем форматтер с понятным форматом времени; в файл лога цвета не пишем
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		ForceColors:     logFile == nil,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if rt == nil {
		rt = arlog.NewMemoryRuntime(arlog.WithLatency(cfg.Latency), arlog.WithMirror(logger))
	}

	return &Client{
		config:   cfg,
		logger:   logger,
		logFile:  logFile,
		logbook:  arlog.NewClient(rt, arlog.WithPollInterval(cfg.PollInterval), arlog.WithLogger(logger)),
		registry: export.NewRegistry(),
		metrics:  prometheus.NewRegistry(),
	}, nil
}

// Close закрывает файл лога, если он был открыт.
func (c *Client) Close() {
	if c.logFile != nil {
		_ = c.logFile.Close()
		c.logFile = nil
	}
}

// openLogFile открывает файл лога за текущий день в каталоге dir.
func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir %s: %w", dir, err)
	}
	name := filepath.Join(dir, time.Now().Format("2006-01-02")+".log")
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", name, err)
	}
	return f, nil
}

// GetLogger возвращает используемый логгер.
func (c *Client) GetLogger() *logrus.Logger {
	return c.logger
}

// Registry возвращает таблицу опубликованных переменных.
func (c *Client) Registry() *export.Registry {
	return c.registry
}

// Metrics возвращает реестр Prometheus с метриками сборки.
func (c *Client) Metrics() *prometheus.Registry {
	return c.metrics
}

// Init выполняет стартовую последовательность один раз: получает идентификатор журнала,
// собирает сообщение, пишет запись, освобождает вызовы и публикует метаданные.
// Ошибки журнала не прерывают последовательность и попадают в отчет;
// ошибка возвращается только при отмене ctx.
func (c *Client) Init(ctx context.Context, info buildinfo.Info) (*models.InitReport, error) {
	start := time.Now()
	report := &models.InitReport{Stage: StageIdle.String(), StartedAt: start}
	log := c.logger.WithField("logbook", c.config.LogbookName)

	c.enter(report, StageRequestIdent)
	ident, releaseIdent, err := c.logbook.HoldIdent(ctx, c.config.LogbookName)
	defer releaseIdent()
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.IdentError = err.Error()
		log.WithError(err).Warn("Не удалось получить идентификатор журнала, запись будет отправлена с последним известным")
	}

	c.enter(report, StageBuildMessage)
	buf := cstring.NewBuffer(c.config.MessageSize)
	message := FormatMessage(buf, c.config.MessageTag, info.Git)
	eventID := EventIDFor(info.Git, c.config.Facility, c.config.Code)
	entry := arlog.TextEntry(eventID, c.config.ObjectID, buf.Bytes())

	report.Truncated = messageLength(c.config.MessageTag, info.Git) > len(message)
	report.Entry = models.LogEntry{
		Logbook:  c.config.LogbookName,
		Ident:    uint32(ident),
		EventID:  eventID.String(),
		Severity: eventID.Severity().String(),
		ObjectID: c.config.ObjectID,
		Message:  message,
		Size:     len(entry.Data),
	}
	if report.Truncated {
		log.WithField("capacity", c.config.MessageSize).Debug("Сообщение обрезано")
	}

	c.enter(report, StageRequestWrite)
	recordID, releaseWrite, err := c.logbook.HoldWrite(ctx, ident, entry)
	defer releaseWrite()
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.WriteError = err.Error()
		log.WithError(err).Warn("Не удалось записать версию сборки в журнал")
	}
	report.Entry.RecordID = uint32(recordID)

	c.enter(report, StageRelease)
	releaseWrite()
	releaseIdent()
	if err := c.publish(info); err != nil {
		log.WithError(err).Warn("Не удалось опубликовать метаданные сборки")
	}
	report.Exported = c.registry.Names()

	c.enter(report, StageDone)
	report.Duration = time.Since(start).String()

	log.WithFields(logrus.Fields{
		"message":  message,
		"event_id": eventID.String(),
		"written":  report.Written(),
	}).Info("Стартовая запись версии сборки завершена")
	return report, nil
}

// publish делает метаданные сборки видимыми для внешнего прохода регистрации.
func (c *Client) publish(info buildinfo.Info) error {
	var errs []error
	if err := c.registry.Publish(ExportName, info); err != nil {
		errs = append(errs, err)
	}
	if err := export.Register(c.metrics, export.NewBuildInfoCollector(metricsNamespace, info)); err != nil {
		errs = append(errs, fmt.Errorf("register build info metrics: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Client) enter(report *models.InitReport, s Stage) {
	c.logger.WithFields(logrus.Fields{"from": report.Stage, "to": s.String()}).Debug("Переход стартовой последовательности")
	report.Stage = s.String()
}
