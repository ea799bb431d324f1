// Команда generate создаёт окна приёма учителя до конца учебного года
//
//	generate -teacher 12 -weekday 1 -frequency S -start 15:00 -end 17:00 -duration 10 -place "Aula 4"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Freeeeeet/colloqui/internal/app"
	"github.com/Freeeeeet/colloqui/internal/calendar"
	"github.com/Freeeeeet/colloqui/internal/colloqui"
	"github.com/Freeeeeet/colloqui/internal/config"
	"github.com/Freeeeeet/colloqui/internal/metrics"
	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/Freeeeeet/colloqui/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type options struct {
	teacherID  int64
	weekday    int
	frequency  string
	mode       string
	start      string
	end        string
	duration   int
	place      string
	locationID int64
}

func main() {
	var opts options
	flag.Int64Var(&opts.teacherID, "teacher", 0, "teacher id")
	flag.IntVar(&opts.weekday, "weekday", 1, "weekday, 0=Sunday .. 6=Saturday")
	flag.StringVar(&opts.frequency, "frequency", "S", "S, 1, 2, 3, 4 or weekly, first_week, second_week, third_week, last_week")
	flag.StringVar(&opts.mode, "mode", "P", "P (in person) or D (remote)")
	flag.StringVar(&opts.start, "start", "", "start time, HH:MM")
	flag.StringVar(&opts.end, "end", "", "end time, HH:MM")
	flag.IntVar(&opts.duration, "duration", 10, "minutes per appointment")
	flag.StringVar(&opts.place, "place", "", "room or meeting link")
	flag.Int64Var(&opts.locationID, "location", 0, "school site id, 0 = any")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	req, err := opts.request()
	if err != nil {
		logger.Fatal("Invalid arguments", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	m := metrics.New(prometheus.NewRegistry())
	scheduler := colloqui.NewScheduler(
		repository.NewMeetingBlockRepository(pool),
		calendar.New(repository.NewHolidayRepository(pool), cfg.School),
		cfg.School,
		colloqui.SystemClock{Location: cfg.Location},
		m,
		logger,
	)

	report, err := scheduler.GenerateDates(ctx, req)

	if cfg.PushgatewayURL != "" && err == nil {
		grouping := map[string]string{"teacher_id": strconv.FormatInt(req.TeacherID, 10)}
		if pushErr := m.Push(ctx, cfg.PushgatewayURL, "colloqui_generate", grouping); pushErr != nil {
			logger.Warn("Failed to push generation metrics", zap.Error(pushErr))
		}
	}

	if err != nil {
		if errors.Is(err, colloqui.ErrSchedulingWindowClosed) {
			logger.Fatal("Meetings are closed for this school year", zap.Error(err))
		}
		logger.Fatal("Failed to generate meeting blocks", zap.Error(err))
	}

	fmt.Printf("batch %s: %d created, %d skipped\n", report.BatchID, len(report.Created), len(report.Skipped))
	for _, b := range report.Created {
		fmt.Printf("  + %s\n", colloqui.BlockLabel(b))
	}
	for _, d := range report.Skipped {
		fmt.Printf("  = %s already taken\n", d.Format(model.DateFormat))
	}
	if report.Warning != "" {
		fmt.Println("warning:", report.Warning)
	}
}

func (o options) request() (colloqui.GenerateRequest, error) {
	if o.teacherID <= 0 {
		return colloqui.GenerateRequest{}, errors.New("-teacher is required")
	}

	frequency, err := colloqui.ParseFrequency(o.frequency)
	if err != nil {
		return colloqui.GenerateRequest{}, err
	}
	mode, ok := model.ParseMeetingMode(o.mode)
	if !ok {
		return colloqui.GenerateRequest{}, fmt.Errorf("%w: %q", colloqui.ErrInvalidMode, o.mode)
	}
	start, err := model.ParseTimeOfDay(o.start)
	if err != nil {
		return colloqui.GenerateRequest{}, err
	}
	end, err := model.ParseTimeOfDay(o.end)
	if err != nil {
		return colloqui.GenerateRequest{}, err
	}

	req := colloqui.GenerateRequest{
		TeacherID:       o.teacherID,
		Mode:            mode,
		Frequency:       frequency,
		DurationMinutes: o.duration,
		Weekday:         time.Weekday(o.weekday),
		Start:           start,
		End:             end,
		Place:           o.place,
	}
	if o.locationID > 0 {
		req.LocationID = &o.locationID
	}
	return req, nil
}
