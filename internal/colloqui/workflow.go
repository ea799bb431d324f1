package colloqui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Freeeeeet/colloqui/internal/model"
	"go.uber.org/zap"
)

// BookAppointmentInput заявка родителя на окно приёма
type BookAppointmentInput struct {
	BlockID   int64
	StudentID int64
	ParentID  int64
}

// RequestAppointment записывает ученика на первое свободное время в окне
func (s *BookingService) RequestAppointment(ctx context.Context, in BookAppointmentInput) (*model.AppointmentRequest, error) {
	block, err := s.blocks.GetByID(ctx, in.BlockID)
	if err != nil {
		return nil, fmt.Errorf("get meeting block: %w", err)
	}
	if block == nil {
		return nil, ErrBlockNotFound
	}

	receptions, err := s.ReceptionDates(ctx, block.TeacherID, nil)
	if err != nil {
		return nil, err
	}
	if _, ok := receptions.IsValid(block.ID); !ok {
		return nil, ErrBlockNotAvailable
	}

	exists, err := s.requests.HasActive(ctx, block.ID, in.StudentID)
	if err != nil {
		return nil, fmt.Errorf("check active request: %w", err)
	}
	if exists {
		return nil, ErrAlreadyRequested
	}

	taken, err := s.blocks.AppointmentTimes(ctx, block.ID)
	if err != nil {
		return nil, fmt.Errorf("get appointment times: %w", err)
	}

	req := &model.AppointmentRequest{
		BlockID:       block.ID,
		StudentID:     in.StudentID,
		ParentID:      in.ParentID,
		AppointmentAt: NextAppointmentTime(block, taken),
		Status:        model.RequestStatusRequested,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create appointment request: %w", err)
	}
	req.Block = block

	s.metrics.RequestTransition(req.Status)
	s.logger.Info("Appointment requested",
		zap.Int64("request_id", req.ID),
		zap.Int64("block_id", block.ID),
		zap.Int64("student_id", in.StudentID),
		zap.String("appointment_at", req.AppointmentAt.String()))

	if err := s.notifier.NotifyNewRequest(ctx, block, req); err != nil {
		s.logger.Warn("Failed to notify teacher about new request",
			zap.Int64("teacher_id", block.TeacherID),
			zap.Error(err))
	}

	return req, nil
}

// NextAppointmentTime первое время Start + k*Duration, не занятое другой заявкой;
// taken отсортированы по возрастанию
func NextAppointmentTime(block *model.MeetingBlock, taken []model.TimeOfDay) model.TimeOfDay {
	at := block.Start
	for _, t := range taken {
		if t != at {
			break
		}
		at = at.Add(block.DurationMinutes)
	}
	return at
}

// CancelAppointment отменяет активную заявку ученика по просьбе родителя
func (s *BookingService) CancelAppointment(ctx context.Context, requestID, studentID, parentID int64) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get appointment request: %w", err)
	}
	if req == nil || req.StudentID != studentID || !req.Status.IsActive() {
		return ErrRequestNotFound
	}

	if err := s.requests.UpdateStatus(ctx, req.ID, model.RequestStatusCancelled, "", &parentID); err != nil {
		return fmt.Errorf("cancel appointment request: %w", err)
	}
	req.Status = model.RequestStatusCancelled
	req.Message = ""
	req.CancelledBy = &parentID

	s.metrics.RequestTransition(req.Status)
	s.logger.Info("Appointment cancelled",
		zap.Int64("request_id", req.ID),
		zap.Int64("parent_id", parentID))

	if req.Block != nil {
		if err := s.notifier.NotifyRequestCancelled(ctx, req.Block, req); err != nil {
			s.logger.Warn("Failed to notify teacher about cancelled request",
				zap.Int64("teacher_id", req.Block.TeacherID),
				zap.Error(err))
		}
	}

	return nil
}

// ConfirmRequest подтверждает заявку, ожидающую ответа
func (s *BookingService) ConfirmRequest(ctx context.Context, teacherID, requestID int64, message string) error {
	req, err := s.pendingRequest(ctx, teacherID, requestID)
	if err != nil {
		return err
	}

	if err := s.requests.UpdateStatus(ctx, req.ID, model.RequestStatusConfirmed, strings.TrimSpace(message), nil); err != nil {
		return fmt.Errorf("confirm appointment request: %w", err)
	}

	s.metrics.RequestTransition(model.RequestStatusConfirmed)
	s.logger.Info("Appointment confirmed", zap.Int64("request_id", req.ID), zap.Int64("teacher_id", teacherID))
	return nil
}

// RejectRequest отклоняет заявку; причина обязательна
func (s *BookingService) RejectRequest(ctx context.Context, teacherID, requestID int64, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrMessageRequired
	}

	req, err := s.pendingRequest(ctx, teacherID, requestID)
	if err != nil {
		return err
	}

	if err := s.requests.UpdateStatus(ctx, req.ID, model.RequestStatusRejected, message, nil); err != nil {
		return fmt.Errorf("reject appointment request: %w", err)
	}

	s.metrics.RequestTransition(model.RequestStatusRejected)
	s.logger.Info("Appointment rejected", zap.Int64("request_id", req.ID), zap.Int64("teacher_id", teacherID))
	return nil
}

// ChangeAnswer меняет уже данный ответ: подтверждённую заявку можно отклонить и наоборот,
// либо поправить сообщение. Сообщение обязательно.
// Повторно подтвердить отклонённую заявку можно, только если в окне есть место
// и её время встречи никем не занято.
func (s *BookingService) ChangeAnswer(ctx context.Context, teacherID, requestID int64, status model.RequestStatus, message string) error {
	if status != model.RequestStatusConfirmed && status != model.RequestStatusRejected {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrMessageRequired
	}

	req, err := s.teacherRequest(ctx, teacherID, requestID)
	if err != nil {
		return err
	}
	if req.Status != model.RequestStatusConfirmed && req.Status != model.RequestStatusRejected {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}

	if !req.Status.IsActive() && status.IsActive() {
		taken, err := s.blocks.AppointmentTimes(ctx, req.Block.ID)
		if err != nil {
			return fmt.Errorf("get appointment times: %w", err)
		}
		if len(taken) >= req.Block.Capacity || slices.Contains(taken, req.AppointmentAt) {
			return ErrBlockNotAvailable
		}
	}

	if err := s.requests.UpdateStatus(ctx, req.ID, status, message, nil); err != nil {
		return fmt.Errorf("change appointment answer: %w", err)
	}

	if status != req.Status {
		s.metrics.RequestTransition(status)
	}
	s.logger.Info("Appointment answer changed",
		zap.Int64("request_id", req.ID),
		zap.Int64("teacher_id", teacherID),
		zap.String("from", string(req.Status)),
		zap.String("to", string(status)))
	return nil
}

// pendingRequest заявка учителя в статусе requested на включённое окно
func (s *BookingService) pendingRequest(ctx context.Context, teacherID, requestID int64) (*model.AppointmentRequest, error) {
	req, err := s.teacherRequest(ctx, teacherID, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.RequestStatusRequested {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}
	return req, nil
}

// teacherRequest заявка на включённое окно учителя
func (s *BookingService) teacherRequest(ctx context.Context, teacherID, requestID int64) (*model.AppointmentRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get appointment request: %w", err)
	}
	if req == nil || req.Block == nil {
		return nil, ErrRequestNotFound
	}
	if req.Block.TeacherID != teacherID {
		return nil, ErrAccessDenied
	}
	if !req.Block.Enabled {
		return nil, ErrBlockNotAvailable
	}
	return req, nil
}

// SetBlockEnabled включает или выключает окно учителя, пока на него нет заявок
func (s *BookingService) SetBlockEnabled(ctx context.Context, teacherID, blockID int64, enabled bool) error {
	block, err := s.blocks.GetByID(ctx, blockID)
	if err != nil {
		return fmt.Errorf("get meeting block: %w", err)
	}
	if block == nil || block.Date.Before(today(s.clock)) {
		return ErrBlockNotFound
	}
	if block.TeacherID != teacherID {
		return ErrAccessDenied
	}

	count, err := s.blocks.CountActiveRequests(ctx, block.ID)
	if err != nil {
		return fmt.Errorf("count active requests: %w", err)
	}
	if count > 0 {
		return ErrBlockHasRequests
	}

	if err := s.blocks.SetEnabled(ctx, block.ID, enabled); err != nil {
		return fmt.Errorf("set meeting block enabled: %w", err)
	}

	s.logger.Info("Meeting block toggled",
		zap.Int64("block_id", block.ID),
		zap.Bool("enabled", enabled))
	return nil
}

// DeleteUnrequestedBlocks удаляет окна учителя без заявок; onlyDisabled ограничивает удаление выключенными
func (s *BookingService) DeleteUnrequestedBlocks(ctx context.Context, teacherID int64, onlyDisabled bool) (int64, error) {
	var enabled *bool
	if onlyDisabled {
		disabled := false
		enabled = &disabled
	}

	deleted, err := s.blocks.DeleteUnrequested(ctx, teacherID, enabled)
	if err != nil {
		return 0, fmt.Errorf("delete unrequested blocks: %w", err)
	}

	s.logger.Info("Unrequested meeting blocks deleted",
		zap.Int64("teacher_id", teacherID),
		zap.Bool("only_disabled", onlyDisabled),
		zap.Int64("deleted", deleted))
	return deleted, nil
}

// PendingCount число заявок учителя, ожидающих ответа, на включённые окна с сегодняшнего дня
func (s *BookingService) PendingCount(ctx context.Context, teacherID int64) (int, error) {
	summary, err := s.requests.PendingByTeacher(ctx, teacherID, today(s.clock))
	if err != nil {
		return 0, fmt.Errorf("get pending requests: %w", err)
	}

	total := 0
	for _, p := range summary {
		total += p.Pending
	}
	return total, nil
}

// PendingDigest сводка ожидающих заявок по всем учителям
func (s *BookingService) PendingDigest(ctx context.Context) ([]model.PendingSummary, error) {
	summary, err := s.requests.PendingByTeacher(ctx, 0, today(s.clock))
	if err != nil {
		return nil, fmt.Errorf("get pending digest: %w", err)
	}
	return summary, nil
}

// TeacherRequests включённые окна учителя с сегодняшнего дня до конца следующего месяца
// вместе со всеми заявками на них
type TeacherRequests struct {
	Blocks  []*model.BlockRequests
	Pending int // заявки в статусе requested
}

// TeacherRequests окна учителя в ближайший период приёма и заявки на них
func (s *BookingService) TeacherRequests(ctx context.Context, teacherID int64) (*TeacherRequests, error) {
	from := today(s.clock)
	to := model.LastDayOfNextMonth(from.AddDate(0, 0, 1))

	blocks, err := s.requests.TeacherBlocks(ctx, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get teacher requests: %w", err)
	}

	result := &TeacherRequests{Blocks: blocks}
	for _, b := range blocks {
		for _, r := range b.Requests {
			if r.Status == model.RequestStatusRequested {
				result.Pending++
			}
		}
	}
	return result, nil
}

// RequestHistory заявки на прошедшие или выключенные окна учителя
func (s *BookingService) RequestHistory(ctx context.Context, teacherID int64) ([]*model.BlockRequests, error) {
	history, err := s.requests.TeacherHistory(ctx, teacherID, today(s.clock))
	if err != nil {
		return nil, fmt.Errorf("get request history: %w", err)
	}
	return history, nil
}
