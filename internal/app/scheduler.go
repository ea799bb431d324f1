package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PendingSource сводка ожидающих заявок по учителям
type PendingSource interface {
	PendingDigest(ctx context.Context) ([]model.PendingSummary, error)
}

// PendingNotifier отправляет сводку одному учителю
type PendingNotifier interface {
	NotifyPending(ctx context.Context, summary model.PendingSummary) error
}

// DigestRecorder учитывает запуски рассылки
type DigestRecorder interface {
	DigestRun(err error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	cron     *cron.Cron
	source   PendingSource
	notifier PendingNotifier
	metrics  DigestRecorder
	timeout  time.Duration
	logger   *zap.Logger
}

// NewScheduler создаёт новый планировщик в часовом поясе школы
func NewScheduler(source PendingSource, notifier PendingNotifier, metrics DigestRecorder, loc *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		source:   source,
		notifier: notifier,
		metrics:  metrics,
		timeout:  5 * time.Minute,
		logger:   logger,
	}
}

// Start регистрирует рассылку сводки по расписанию spec (формат cron) и запускает планировщик
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.SendPendingDigest(ctx)
	}); err != nil {
		return fmt.Errorf("schedule pending digest %q: %w", spec, err)
	}

	s.logger.Info("Starting background scheduler", zap.String("digest_spec", spec))
	s.cron.Start()
	return nil
}

// Stop останавливает планировщик и ждёт завершения запущенных задач
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("Stopping background scheduler")

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Background jobs did not finish before shutdown")
	}
}

// SendPendingDigest напоминает учителям о заявках, ожидающих ответа
func (s *Scheduler) SendPendingDigest(ctx context.Context) {
	s.logger.Info("Sending pending requests digest")

	summary, err := s.source.PendingDigest(ctx)
	if err != nil {
		s.metrics.DigestRun(err)
		s.logger.Error("Failed to load pending requests", zap.Error(err))
		return
	}

	var errs []error
	sent := 0
	for _, item := range summary {
		if item.Pending == 0 {
			continue
		}
		if err := s.notifier.NotifyPending(ctx, item); err != nil {
			errs = append(errs, err)
			s.logger.Warn("Failed to send pending digest",
				zap.Int64("teacher_id", item.TeacherID),
				zap.Error(err))
			continue
		}
		sent++
	}

	s.metrics.DigestRun(errors.Join(errs...))
	s.logger.Info("Pending requests digest sent", zap.Int("teachers", sent), zap.Int("failed", len(errs)))
}
