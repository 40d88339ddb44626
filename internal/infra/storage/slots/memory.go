package slots

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/m04kA/SMC-SlotCalendar/internal/domain"
	"github.com/m04kA/SMC-SlotCalendar/pkg/types"
)

type dayKey struct {
	userID string
	date   time.Time
}

// MemoryRepository хранилище слотов в памяти процесса
// Используется в тестах и при storage.driver = "memory"
type MemoryRepository struct {
	mu   sync.RWMutex
	days map[dayKey]*domain.DaySlots
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{days: make(map[dayKey]*domain.DaySlots)}
}

func (r *MemoryRepository) FindRange(_ context.Context, userID string, startDate time.Time, endDate *time.Time) ([]*domain.DaySlots, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	from := domain.NormalizeDate(startDate)
	var to time.Time
	if endDate != nil {
		to = domain.NormalizeDate(*endDate)
	}

	result := make([]*domain.DaySlots, 0)
	for key, day := range r.days {
		if key.userID != userID || key.date.Before(from) {
			continue
		}
		if endDate != nil && key.date.After(to) {
			continue
		}
		result = append(result, cloneDay(day))
	}

	slices.SortFunc(result, func(a, b *domain.DaySlots) int {
		return a.Date.Compare(b.Date)
	})

	return result, nil
}

func (r *MemoryRepository) FindOne(_ context.Context, userID string, date time.Time) (*domain.DaySlots, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day, ok := r.days[newDayKey(userID, date)]
	if !ok {
		return nil, nil
	}
	return cloneDay(day), nil
}

func (r *MemoryRepository) InsertDay(_ context.Context, userID string, date time.Time, initial []domain.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := newDayKey(userID, date)
	if _, ok := r.days[key]; ok {
		return ErrDayExists
	}

	day := &domain.DaySlots{UserID: userID, Date: key.date, Slots: make([]domain.Slot, 0, len(initial))}
	for _, slot := range initial {
		if day.IndexByStart(slot.Start) >= 0 {
			return ErrDuplicateSlot
		}
		day.Slots = append(day.Slots, slot)
	}

	r.days[key] = day
	return nil
}

func (r *MemoryRepository) AppendSlot(_ context.Context, userID string, date time.Time, slot domain.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	day, ok := r.days[newDayKey(userID, date)]
	if !ok {
		return ErrDayNotFound
	}
	if day.IndexByStart(slot.Start) >= 0 {
		return ErrDuplicateSlot
	}

	day.Slots = append(day.Slots, slot)
	return nil
}

func (r *MemoryRepository) ReplaceSlotByStart(_ context.Context, userID string, date time.Time, originalStart types.TimeString, newSlot domain.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	day, ok := r.days[newDayKey(userID, date)]
	if !ok {
		return ErrDayNotFound
	}

	idx := day.IndexByStart(originalStart)
	if idx < 0 {
		return ErrSlotNotFound
	}
	if other := day.IndexByStart(newSlot.Start); other >= 0 && other != idx {
		return ErrDuplicateSlot
	}

	day.Slots[idx] = newSlot
	return nil
}

func (r *MemoryRepository) RemoveSlot(_ context.Context, userID string, date time.Time, slot domain.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	day, ok := r.days[newDayKey(userID, date)]
	if !ok {
		return nil
	}

	if idx := slices.IndexFunc(day.Slots, slot.Equal); idx >= 0 {
		day.Slots = slices.Delete(day.Slots, idx, idx+1)
	}
	return nil
}

func newDayKey(userID string, date time.Time) dayKey {
	return dayKey{userID: userID, date: domain.NormalizeDate(date)}
}

func cloneDay(day *domain.DaySlots) *domain.DaySlots {
	return &domain.DaySlots{
		UserID: day.UserID,
		Date:   day.Date,
		Slots:  slices.Clone(day.Slots),
	}
}
