package colloqui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type schedulerFixture struct {
	db       *memDB
	blocks   *fakeBlockStore
	calendar *fakeCalendar
	recorder *fakeRecorder
	sched    *Scheduler
}

func newSchedulerFixture(clock Clock, year SchoolYear) *schedulerFixture {
	db := newMemDB()
	f := &schedulerFixture{
		db:       db,
		blocks:   &fakeBlockStore{db: db},
		calendar: &fakeCalendar{holidays: map[string]bool{}},
		recorder: &fakeRecorder{},
	}
	f.sched = NewScheduler(f.blocks, f.calendar, year, clock, f.recorder, zap.NewNop())
	return f
}

func weeklyRequest() GenerateRequest {
	return GenerateRequest{
		TeacherID:       7,
		Mode:            model.MeetingModeInPerson,
		Frequency:       FrequencyWeekly,
		DurationMinutes: 10,
		Weekday:         time.Monday,
		Start:           hm(15, 0),
		End:             hm(17, 0),
		Place:           " Aula 12 ",
	}
}

func TestScheduler_GenerateDates(t *testing.T) {
	f := newSchedulerFixture(defaultClock(), defaultYear())
	f.calendar.holidays["2025-11-03"] = true

	report, err := f.sched.GenerateDates(context.Background(), weeklyRequest())
	require.NoError(t, err)

	assert.Empty(t, report.Warning)
	assert.Empty(t, report.Skipped)
	require.NotEmpty(t, report.Created)
	assert.Len(t, f.db.blocks, len(report.Created))

	first := report.Created[0]
	assert.Equal(t, day(2025, 10, 20), first.Date)
	assert.Equal(t, 12, first.Capacity)
	assert.Equal(t, "Aula 12", first.Place)
	assert.True(t, first.Enabled)

	for _, b := range report.Created {
		assert.Equal(t, report.BatchID, b.BatchID)
		assert.Equal(t, time.Monday, b.Date.Weekday())
		assert.True(t, b.Date.After(day(2025, 10, 15)))
		assert.False(t, b.Date.After(day(2026, 5, 11)))
		assert.NotEqual(t, time.December, b.Date.Month())
		assert.NotEqual(t, time.March, b.Date.Month())
		assert.NotEqual(t, day(2025, 11, 3), b.Date)
	}

	assert.Equal(t, len(report.Created), f.recorder.created)
}

func TestScheduler_GenerateDates_MonthlyFrequency(t *testing.T) {
	f := newSchedulerFixture(defaultClock(), defaultYear())
	req := weeklyRequest()
	req.Frequency = FrequencyLastWeek

	report, err := f.sched.GenerateDates(context.Background(), req)
	require.NoError(t, err)

	var dates []time.Time
	for _, b := range report.Created {
		dates = append(dates, b.Date)
	}
	// декабрь и март заблокированы, 11 мая последний день приёма
	assert.Equal(t, []time.Time{
		day(2025, 10, 27),
		day(2025, 11, 24),
		day(2026, 1, 26),
		day(2026, 2, 23),
		day(2026, 4, 27),
		day(2026, 5, 11),
	}, dates)
}

func TestScheduler_GenerateDates_SecondRunSkipsDuplicates(t *testing.T) {
	f := newSchedulerFixture(defaultClock(), defaultYear())

	first, err := f.sched.GenerateDates(context.Background(), weeklyRequest())
	require.NoError(t, err)
	total := len(f.db.blocks)

	second, err := f.sched.GenerateDates(context.Background(), weeklyRequest())
	require.NoError(t, err)

	assert.Equal(t, WarningDuplicatesSkipped, second.Warning)
	assert.Empty(t, second.Created)
	assert.Len(t, second.Skipped, len(first.Created))
	assert.Len(t, f.db.blocks, total)
	assert.NotEqual(t, first.BatchID, second.BatchID)
}

func TestScheduler_GenerateDates_PartialOverlap(t *testing.T) {
	f := newSchedulerFixture(defaultClock(), defaultYear())
	f.db.addBlock(&model.MeetingBlock{TeacherID: 7, Date: day(2025, 10, 27), Start: hm(16, 30), End: hm(18, 0), Enabled: true})
	// выключенные окна и окна других учителей не мешают
	f.db.addBlock(&model.MeetingBlock{TeacherID: 7, Date: day(2025, 11, 10), Start: hm(15, 0), End: hm(17, 0), Enabled: false})
	f.db.addBlock(&model.MeetingBlock{TeacherID: 8, Date: day(2025, 11, 17), Start: hm(15, 0), End: hm(17, 0), Enabled: true})
	// касание концами не пересечение
	f.db.addBlock(&model.MeetingBlock{TeacherID: 7, Date: day(2025, 11, 24), Start: hm(17, 0), End: hm(18, 0), Enabled: true})

	report, err := f.sched.GenerateDates(context.Background(), weeklyRequest())
	require.NoError(t, err)

	assert.Equal(t, WarningDuplicatesSkipped, report.Warning)
	assert.Equal(t, []time.Time{day(2025, 10, 27)}, report.Skipped)
	assert.Equal(t, 1, f.recorder.skipped)
}

func TestScheduler_PersistDates_IntraBatchDuplicates(t *testing.T) {
	f := newSchedulerFixture(defaultClock(), defaultYear())
	// хранилище не показывает только что созданные окна
	f.blocks.hideCreated = true

	dates := []time.Time{day(2025, 10, 20), day(2025, 10, 20), day(2025, 10, 27)}
	report, err := f.sched.persistDates(context.Background(), weeklyRequest(), dates)
	require.NoError(t, err)

	assert.Equal(t, 2, f.blocks.created)
	require.Len(t, report.Created, 2)
	assert.Equal(t, day(2025, 10, 20), report.Created[0].Date)
	assert.Equal(t, day(2025, 10, 27), report.Created[1].Date)
	assert.Equal(t, []time.Time{day(2025, 10, 20)}, report.Skipped)
	assert.Equal(t, WarningDuplicatesSkipped, report.Warning)
}

func TestScheduler_GenerateDates_WindowClosed(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		closed bool
	}{
		{"tomorrow after cutoff", time.Date(2026, 5, 11, 9, 0, 0, 0, time.UTC), true},
		{"well after cutoff", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC), true},
		{"tomorrow equals cutoff", time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSchedulerFixture(fixedClock{now: tt.now}, defaultYear())

			report, err := f.sched.GenerateDates(context.Background(), weeklyRequest())
			if tt.closed {
				assert.ErrorIs(t, err, ErrSchedulingWindowClosed)
				assert.Nil(t, report)
				assert.Empty(t, f.db.blocks)
				assert.Zero(t, f.calendar.calls)
				return
			}
			require.NoError(t, err)
			// 11 мая 2026 понедельник
			require.Len(t, report.Created, 1)
			assert.Equal(t, day(2026, 5, 11), report.Created[0].Date)
		})
	}
}

func TestScheduler_GenerateDates_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *GenerateRequest)
		wantErr error
	}{
		{"zero duration", func(r *GenerateRequest) { r.DurationMinutes = 0 }, ErrInvalidDuration},
		{"negative duration", func(r *GenerateRequest) { r.DurationMinutes = -10 }, ErrInvalidDuration},
		{"end before start", func(r *GenerateRequest) { r.End = hm(14, 0) }, ErrInvalidTimeRange},
		{"empty window", func(r *GenerateRequest) { r.End = r.Start }, ErrInvalidTimeRange},
		{"weekday out of range", func(r *GenerateRequest) { r.Weekday = 9 }, ErrInvalidWeekday},
		{"unknown frequency", func(r *GenerateRequest) { r.Frequency = "monthly" }, ErrInvalidFrequency},
		{"unknown mode", func(r *GenerateRequest) { r.Mode = "phone" }, ErrInvalidMode},
		{"bare meet link", func(r *GenerateRequest) {
			r.Mode = model.MeetingModeRemote
			r.Place = "https://meet.google.com/"
		}, ErrInvalidLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSchedulerFixture(defaultClock(), defaultYear())
			req := weeklyRequest()
			tt.mutate(&req)

			_, err := f.sched.GenerateDates(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.db.blocks)
		})
	}
}

func TestScheduler_GenerateDates_RemoteLink(t *testing.T) {
	f := newSchedulerFixture(defaultClock(), defaultYear())
	req := weeklyRequest()
	req.Mode = model.MeetingModeRemote
	req.Place = "meet.google.com/abc-defg-hij"
	req.Frequency = FrequencyFirstWeek

	report, err := f.sched.GenerateDates(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, report.Created)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", report.Created[0].Place)
	assert.Equal(t, model.MeetingModeRemote, report.Created[0].Mode)
}

func TestScheduler_GenerateDates_StoreErrorPropagates(t *testing.T) {
	f := newSchedulerFixture(defaultClock(), defaultYear())
	boom := errors.New("connection reset")
	f.blocks.createErr = boom

	_, err := f.sched.GenerateDates(context.Background(), weeklyRequest())
	assert.ErrorIs(t, err, boom)
}

func TestNormalizeMeetingLink(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"meet.google.com/abc-defg-hij", "https://meet.google.com/abc-defg-hij", false},
		{"http://zoom.us/j/123", "http://zoom.us/j/123", false},
		{" https://teams.microsoft.com/l/meetup ", "https://teams.microsoft.com/l/meetup", false},
		{"meet.google.com", "", true},
		{"https://meet.google.com/", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeMeetingLink(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLink)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
