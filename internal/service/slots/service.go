package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotCalendar/internal/domain"
	slotsRepo "github.com/m04kA/SMC-SlotCalendar/internal/infra/storage/slots"
	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots/models"
)

// Имена операций для метрик и логов
const (
	opListAvailability = "list_availability"
	opGetDetail        = "get_detail"
	opAddSlot          = "add_slot"
	opUpdateSlot       = "update_slot"
	opRemoveSlot       = "remove_slot"
)

// Service сервис доступности слотов
// Состояния между вызовами не хранит; записи по одному (user_id, date) сериализуются через Locker
type Service struct {
	repo    SlotRepository
	locker  Locker
	metrics Metrics
	logger  Logger
}

// NewService создает новый экземпляр сервиса слотов
// metrics может быть nil
func NewService(
	repo SlotRepository,
	locker Locker,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		repo:    repo,
		locker:  locker,
		metrics: metrics,
		logger:  logger,
	}
}

// ListAvailability возвращает доступность по дням за период, по возрастанию даты
// Пустой результат - ErrNoData
func (s *Service) ListAvailability(ctx context.Context, req *models.ListAvailabilityRequest) (result []models.AvailabilityResponse, err error) {
	defer func() { s.record(opListAvailability, err) }()

	if err := validateUserID(req.UserID); err != nil {
		return nil, err
	}
	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	days, err := s.repo.FindRange(ctx, req.UserID, req.StartDate, req.EndDate)
	if err != nil {
		s.logger.Error("ListAvailability: repository error for user=%s: %v", req.UserID, err)
		return nil, mapRepositoryError("ListAvailability", err)
	}

	if len(days) == 0 {
		s.logger.Warn("ListAvailability: no records for user=%s from %s", req.UserID, req.StartDate.Format(domain.DateFormat))
		return nil, fmt.Errorf("%w: no slots for user %s in requested period", ErrNoData, req.UserID)
	}

	s.logger.Info("ListAvailability: found %d days for user=%s", len(days), req.UserID)
	return models.FromDomainAvailabilityList(days), nil
}

// GetDetail возвращает доступность и слоты на одну дату
func (s *Service) GetDetail(ctx context.Context, req *models.DetailRequest) (result *models.DetailResponse, err error) {
	defer func() { s.record(opGetDetail, err) }()

	if err := validateUserID(req.UserID); err != nil {
		return nil, err
	}
	if err := validateDate(req.Date); err != nil {
		return nil, err
	}

	day, err := s.findDay(ctx, "GetDetail", req.UserID, req.Date)
	if err != nil {
		return nil, err
	}

	return models.FromDomainDetail(day), nil
}

// AddSlot добавляет слот в запись дня, создавая запись при первом добавлении
//
// Отказы:
// - ErrValidation: start >= end
// - ErrDuplicate: слот с таким же началом уже есть (в т.ч. точное совпадение)
// - ErrCapacity: в дне уже MaxSlotsPerDay слотов
//
// Пересекающиеся, но не совпадающие слоты принимаются
func (s *Service) AddSlot(ctx context.Context, req *models.SlotRequest) (err error) {
	defer func() { s.record(opAddSlot, err) }()

	slot := req.Slot.ToDomain()
	if err := s.validateSlotRequest(req, slot); err != nil {
		return err
	}

	release, err := s.lock(ctx, "AddSlot", req.UserID, req.Date)
	if err != nil {
		return err
	}
	defer release()

	day, err := s.repo.FindOne(ctx, req.UserID, req.Date)
	if err != nil {
		s.logger.Error("AddSlot: repository error for user=%s: %v", req.UserID, err)
		return mapRepositoryError("AddSlot", err)
	}

	if day == nil {
		err = s.repo.InsertDay(ctx, req.UserID, req.Date, []domain.Slot{slot})
		if err == nil {
			s.logger.Info("AddSlot: created day %s for user=%s with slot %s-%s",
				req.Date.Format(domain.DateFormat), req.UserID, slot.Start, slot.End)
			return nil
		}
		if !errors.Is(err, slotsRepo.ErrDayExists) {
			s.logger.Error("AddSlot: failed to insert day for user=%s: %v", req.UserID, err)
			return mapRepositoryError("AddSlot", err)
		}

		// запись создал другой процесс, переходим к добавлению
		s.logger.Warn("AddSlot: day %s for user=%s was created concurrently", req.Date.Format(domain.DateFormat), req.UserID)
		day, err = s.repo.FindOne(ctx, req.UserID, req.Date)
		if err != nil {
			return mapRepositoryError("AddSlot", err)
		}
		if day == nil {
			return fmt.Errorf("%w: AddSlot - day disappeared after conflict", ErrConflict)
		}
	}

	if err := checkCanAppend(day, slot); err != nil {
		s.logger.Warn("AddSlot: rejected slot %s-%s for user=%s: %v", slot.Start, slot.End, req.UserID, err)
		return err
	}

	if overlapping := day.OverlappingSlots(slot); len(overlapping) > 0 {
		s.logger.Warn("AddSlot: slot %s-%s for user=%s overlaps %d existing slots", slot.Start, slot.End, req.UserID, len(overlapping))
	}

	if err := s.repo.AppendSlot(ctx, req.UserID, req.Date, slot); err != nil {
		s.logger.Error("AddSlot: failed to append slot for user=%s: %v", req.UserID, err)
		return mapRepositoryError("AddSlot", err)
	}

	s.logger.Info("AddSlot: added slot %s-%s on %s for user=%s",
		slot.Start, slot.End, req.Date.Format(domain.DateFormat), req.UserID)
	return nil
}

// UpdateSlot заменяет слот с тем же началом на переданный (меняется конец)
func (s *Service) UpdateSlot(ctx context.Context, req *models.SlotRequest) (err error) {
	defer func() { s.record(opUpdateSlot, err) }()

	slot := req.Slot.ToDomain()
	if err := s.validateSlotRequest(req, slot); err != nil {
		return err
	}

	release, err := s.lock(ctx, "UpdateSlot", req.UserID, req.Date)
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.findDay(ctx, "UpdateSlot", req.UserID, req.Date); err != nil {
		return err
	}

	if err := s.repo.ReplaceSlotByStart(ctx, req.UserID, req.Date, slot.Start, slot); err != nil {
		if errors.Is(err, slotsRepo.ErrSlotNotFound) {
			s.logger.Warn("UpdateSlot: slot starting at %s not found for user=%s", slot.Start, req.UserID)
		} else {
			s.logger.Error("UpdateSlot: failed to replace slot for user=%s: %v", req.UserID, err)
		}
		return mapRepositoryError("UpdateSlot", err)
	}

	s.logger.Info("UpdateSlot: slot %s now ends at %s on %s for user=%s",
		slot.Start, slot.End, req.Date.Format(domain.DateFormat), req.UserID)
	return nil
}

// RemoveSlot удаляет слот с точно совпадающими началом и концом
// Отсутствие такого слота не ошибка
func (s *Service) RemoveSlot(ctx context.Context, req *models.SlotRequest) (err error) {
	defer func() { s.record(opRemoveSlot, err) }()

	if err := validateUserID(req.UserID); err != nil {
		return err
	}
	if err := validateDate(req.Date); err != nil {
		return err
	}
	slot := req.Slot.ToDomain()

	release, err := s.lock(ctx, "RemoveSlot", req.UserID, req.Date)
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.findDay(ctx, "RemoveSlot", req.UserID, req.Date); err != nil {
		return err
	}

	if err := s.repo.RemoveSlot(ctx, req.UserID, req.Date, slot); err != nil {
		s.logger.Error("RemoveSlot: failed to remove slot for user=%s: %v", req.UserID, err)
		return mapRepositoryError("RemoveSlot", err)
	}

	s.logger.Info("RemoveSlot: removed slot %s-%s on %s for user=%s",
		slot.Start, slot.End, req.Date.Format(domain.DateFormat), req.UserID)
	return nil
}

func (s *Service) validateSlotRequest(req *models.SlotRequest, slot domain.Slot) error {
	if err := validateUserID(req.UserID); err != nil {
		return err
	}
	if err := validateDate(req.Date); err != nil {
		return err
	}
	return validateSlot(slot)
}

// findDay получает запись дня; отсутствие записи - ErrNoData
func (s *Service) findDay(ctx context.Context, op, userID string, date time.Time) (*domain.DaySlots, error) {
	day, err := s.repo.FindOne(ctx, userID, date)
	if err != nil {
		s.logger.Error("%s: repository error for user=%s: %v", op, userID, err)
		return nil, mapRepositoryError(op, err)
	}
	if day == nil {
		s.logger.Warn("%s: no record for user=%s on %s", op, userID, date.Format(domain.DateFormat))
		return nil, fmt.Errorf("%w: no slots for user %s on %s", ErrNoData, userID, date.Format(domain.DateFormat))
	}
	return day, nil
}

func (s *Service) lock(ctx context.Context, op, userID string, date time.Time) (func(), error) {
	release, err := s.locker.Lock(ctx, lockKey(userID, date))
	if err != nil {
		s.logger.Error("%s: failed to lock user=%s date=%s: %v", op, userID, date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: %s - lock: %v", ErrStorageUnavailable, op, err)
	}
	return release, nil
}

func (s *Service) record(op string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSlotOperation(op, resultLabel(err))
}

// checkCanAppend проверяет правила добавления в существующую запись
func checkCanAppend(day *domain.DaySlots, slot domain.Slot) error {
	if day.Contains(slot) {
		return ErrDuplicate
	}
	if idx := day.IndexByStart(slot.Start); idx >= 0 {
		return fmt.Errorf("%w: slot starting at %s ends at %s", ErrDuplicate, slot.Start, day.Slots[idx].End)
	}
	if day.IsFull() {
		return fmt.Errorf("%w: %d of %d slots taken", ErrCapacity, len(day.Slots), domain.MaxSlotsPerDay)
	}
	return nil
}

func lockKey(userID string, date time.Time) string {
	return userID + "|" + domain.NormalizeDate(date).Format(domain.DateFormat)
}

// mapRepositoryError переводит ошибки хранилища в ошибки сервиса
func mapRepositoryError(op string, err error) error {
	switch {
	case errors.Is(err, slotsRepo.ErrDayNotFound), errors.Is(err, slotsRepo.ErrSlotNotFound):
		return fmt.Errorf("%w: %s - %v", ErrNoData, op, err)
	case errors.Is(err, slotsRepo.ErrDuplicateSlot):
		return fmt.Errorf("%w: %s - %v", ErrDuplicate, op, err)
	case errors.Is(err, slotsRepo.ErrDayExists):
		return fmt.Errorf("%w: %s - %v", ErrConflict, op, err)
	default:
		return fmt.Errorf("%w: %s - repository error: %v", ErrStorageUnavailable, op, err)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrCapacity):
		return "capacity"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	default:
		return "error"
	}
}
