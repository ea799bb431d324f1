package colloqui

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/Freeeeeet/colloqui/internal/repository"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hm(h, m int) model.TimeOfDay {
	return model.NewTimeOfDay(h, m)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type fakeYear struct {
	yearEnd       time.Time
	meetingsEnd   time.Time
	blockedMonths []time.Month
}

func (y fakeYear) YearEndDate() time.Time      { return y.yearEnd }
func (y fakeYear) MeetingsEndDate() time.Time  { return y.meetingsEnd }
func (y fakeYear) BlockedMonths() []time.Month { return y.blockedMonths }

func defaultYear() fakeYear {
	return fakeYear{
		yearEnd:       day(2026, 6, 10),
		meetingsEnd:   day(2026, 5, 11),
		blockedMonths: []time.Month{time.December, time.March},
	}
}

// 15 октября 2025, среда
func defaultClock() fixedClock {
	return fixedClock{now: time.Date(2025, 10, 15, 10, 30, 0, 0, time.UTC)}
}

type fakeCalendar struct {
	holidays map[string]bool
	calls    int
}

func (c *fakeCalendar) IsHoliday(_ context.Context, date time.Time, _ *int64) (bool, error) {
	c.calls++
	return c.holidays[date.Format(model.DateFormat)], nil
}

// memDB общее хранилище для фейковых BlockStore и RequestStore
type memDB struct {
	blocks   []*model.MeetingBlock
	requests []*model.AppointmentRequest
	nextID   int64
}

func newMemDB() *memDB {
	return &memDB{nextID: 1}
}

func (db *memDB) id() int64 {
	id := db.nextID
	db.nextID++
	return id
}

func (db *memDB) block(id int64) *model.MeetingBlock {
	for _, b := range db.blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (db *memDB) activeRequests(blockID int64) []*model.AppointmentRequest {
	var result []*model.AppointmentRequest
	for _, r := range db.requests {
		if r.BlockID == blockID && r.Status.IsActive() {
			result = append(result, r)
		}
	}
	return result
}

// addBlock кладёт окно напрямую, минуя планировщик
func (db *memDB) addBlock(b *model.MeetingBlock) *model.MeetingBlock {
	b.ID = db.id()
	if b.DurationMinutes == 0 {
		b.DurationMinutes = 10
	}
	if b.Capacity == 0 {
		b.Capacity, _ = BlockCapacity(b)
	}
	db.blocks = append(db.blocks, b)
	return b
}

func (db *memDB) addRequest(r *model.AppointmentRequest) *model.AppointmentRequest {
	r.ID = db.id()
	db.requests = append(db.requests, r)
	return r
}

type fakeBlockStore struct {
	db *memDB

	// hideCreated делает созданные окна невидимыми для Overlaps (отложенная запись)
	hideCreated bool
	createErr   error
	created     int
}

func (s *fakeBlockStore) Create(_ context.Context, block *model.MeetingBlock) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created++
	if s.hideCreated {
		block.ID = s.db.id()
		return nil
	}
	block.ID = s.db.id()
	s.db.blocks = append(s.db.blocks, block)
	return nil
}

func (s *fakeBlockStore) GetByID(_ context.Context, id int64) (*model.MeetingBlock, error) {
	return s.db.block(id), nil
}

func (s *fakeBlockStore) Overlaps(_ context.Context, teacherID int64, date time.Time, start, end model.TimeOfDay) (bool, error) {
	candidate := model.TimeRange{Start: start, End: end}
	for _, b := range s.db.blocks {
		if b.TeacherID != teacherID || !b.Enabled || !b.Date.Equal(date) {
			continue
		}
		if b.Range().Overlaps(candidate) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeBlockStore) Receptions(_ context.Context, f repository.ReceptionFilter) ([]*model.BlockWithDemand, error) {
	var result []*model.BlockWithDemand
	for _, b := range s.db.blocks {
		if b.TeacherID != f.TeacherID || b.Date.Before(f.From) || b.Date.After(f.To) {
			continue
		}
		if f.Enabled != nil && b.Enabled != *f.Enabled {
			continue
		}
		if f.LocationID != nil && b.LocationID != nil && *b.LocationID != *f.LocationID {
			continue
		}
		result = append(result, &model.BlockWithDemand{Block: b, ActiveRequests: len(s.db.activeRequests(b.ID))})
	}
	sort.SliceStable(result, func(i, j int) bool {
		bi, bj := result[i].Block, result[j].Block
		if !bi.Date.Equal(bj.Date) {
			return bi.Date.Before(bj.Date)
		}
		return bi.Start < bj.Start
	})
	return result, nil
}

func (s *fakeBlockStore) CountActiveRequests(_ context.Context, blockID int64) (int, error) {
	return len(s.db.activeRequests(blockID)), nil
}

func (s *fakeBlockStore) AppointmentTimes(_ context.Context, blockID int64) ([]model.TimeOfDay, error) {
	var times []model.TimeOfDay
	for _, r := range s.db.activeRequests(blockID) {
		times = append(times, r.AppointmentAt)
	}
	slices.Sort(times)
	return times, nil
}

func (s *fakeBlockStore) SetEnabled(_ context.Context, id int64, enabled bool) error {
	if b := s.db.block(id); b != nil {
		b.Enabled = enabled
	}
	return nil
}

func (s *fakeBlockStore) DeleteUnrequested(_ context.Context, teacherID int64, enabled *bool) (int64, error) {
	var kept []*model.MeetingBlock
	var deleted int64
	for _, b := range s.db.blocks {
		hasRequests := slices.ContainsFunc(s.db.requests, func(r *model.AppointmentRequest) bool {
			return r.BlockID == b.ID
		})
		if b.TeacherID == teacherID && !hasRequests && (enabled == nil || b.Enabled == *enabled) {
			deleted++
			continue
		}
		kept = append(kept, b)
	}
	s.db.blocks = kept
	return deleted, nil
}

type fakeRequestStore struct {
	db *memDB
}

func (s *fakeRequestStore) Create(_ context.Context, req *model.AppointmentRequest) error {
	s.db.addRequest(req)
	return nil
}

func (s *fakeRequestStore) GetByID(_ context.Context, id int64) (*model.AppointmentRequest, error) {
	for _, r := range s.db.requests {
		if r.ID == id {
			found := *r
			found.Block = s.db.block(r.BlockID)
			return &found, nil
		}
	}
	return nil, nil
}

func (s *fakeRequestStore) HasActive(_ context.Context, blockID, studentID int64) (bool, error) {
	for _, r := range s.db.activeRequests(blockID) {
		if r.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeRequestStore) UpdateStatus(_ context.Context, id int64, status model.RequestStatus, message string, cancelledBy *int64) error {
	for _, r := range s.db.requests {
		if r.ID == id {
			r.Status = status
			r.Message = message
			if cancelledBy != nil {
				r.CancelledBy = cancelledBy
			}
		}
	}
	return nil
}

func (s *fakeRequestStore) StudentRequests(_ context.Context, studentID, parentID int64, from time.Time) ([]*model.StudentRequest, error) {
	var result []*model.StudentRequest
	for _, r := range s.db.requests {
		b := s.db.block(r.BlockID)
		if r.StudentID != studentID || r.ParentID != parentID || b == nil || !b.Enabled || b.Date.Before(from) {
			continue
		}
		result = append(result, &model.StudentRequest{
			RequestID:     r.ID,
			AppointmentAt: r.AppointmentAt,
			Status:        r.Status,
			BlockID:       b.ID,
			Date:          b.Date,
			TeacherID:     b.TeacherID,
		})
	}
	return result, nil
}

func (s *fakeRequestStore) PendingByTeacher(_ context.Context, teacherID int64, from time.Time) ([]model.PendingSummary, error) {
	counts := make(map[int64]int)
	for _, r := range s.db.requests {
		b := s.db.block(r.BlockID)
		if r.Status != model.RequestStatusRequested || b == nil || !b.Enabled || b.Date.Before(from) {
			continue
		}
		if teacherID != 0 && b.TeacherID != teacherID {
			continue
		}
		counts[b.TeacherID]++
	}
	var result []model.PendingSummary
	for id, n := range counts {
		result = append(result, model.PendingSummary{TeacherID: id, Pending: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TeacherID < result[j].TeacherID })
	return result, nil
}

func (s *fakeRequestStore) TeacherBlocks(_ context.Context, teacherID int64, from, to time.Time) ([]*model.BlockRequests, error) {
	return s.blockRequests(func(b *model.MeetingBlock) bool {
		return b.TeacherID == teacherID && b.Enabled && !b.Date.Before(from) && !b.Date.After(to)
	}, true), nil
}

func (s *fakeRequestStore) TeacherHistory(_ context.Context, teacherID int64, before time.Time) ([]*model.BlockRequests, error) {
	return s.blockRequests(func(b *model.MeetingBlock) bool {
		return b.TeacherID == teacherID && (!b.Enabled || b.Date.Before(before))
	}, false), nil
}

func (s *fakeRequestStore) blockRequests(match func(*model.MeetingBlock) bool, withEmpty bool) []*model.BlockRequests {
	var result []*model.BlockRequests
	for _, b := range s.db.blocks {
		if !match(b) {
			continue
		}
		br := &model.BlockRequests{Block: b}
		for _, r := range s.db.requests {
			if r.BlockID != b.ID {
				continue
			}
			br.Requests = append(br.Requests, &model.TeacherRequest{
				RequestID:     r.ID,
				AppointmentAt: r.AppointmentAt,
				Status:        r.Status,
				Message:       r.Message,
				StudentID:     r.StudentID,
			})
		}
		if len(br.Requests) == 0 && !withEmpty {
			continue
		}
		result = append(result, br)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Block.Date.Before(result[j].Block.Date)
	})
	return result
}

type fakeAssignments struct {
	assignments []*model.TeachingAssignment
	class       model.Class
}

func (f *fakeAssignments) ByClass(_ context.Context, class model.Class) ([]*model.TeachingAssignment, error) {
	f.class = class
	return f.assignments, nil
}

type fakeNotifier struct {
	newRequests []*model.AppointmentRequest
	cancelled   []*model.AppointmentRequest
	err         error
}

func (n *fakeNotifier) NotifyNewRequest(_ context.Context, _ *model.MeetingBlock, req *model.AppointmentRequest) error {
	n.newRequests = append(n.newRequests, req)
	return n.err
}

func (n *fakeNotifier) NotifyRequestCancelled(_ context.Context, _ *model.MeetingBlock, req *model.AppointmentRequest) error {
	n.cancelled = append(n.cancelled, req)
	return n.err
}

type fakeRecorder struct {
	created, skipped int
	transitions      []model.RequestStatus
}

func (r *fakeRecorder) ObserveGeneration(created, skipped int, _ time.Duration) {
	r.created += created
	r.skipped += skipped
}

func (r *fakeRecorder) RequestTransition(status model.RequestStatus) {
	r.transitions = append(r.transitions, status)
}
