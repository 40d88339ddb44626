package slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotCalendar/internal/domain"
	"github.com/m04kA/SMC-SlotCalendar/pkg/types"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	FindRange(ctx context.Context, userID string, startDate time.Time, endDate *time.Time) ([]*domain.DaySlots, error)
	FindOne(ctx context.Context, userID string, date time.Time) (*domain.DaySlots, error)
	InsertDay(ctx context.Context, userID string, date time.Time, initial []domain.Slot) error
	AppendSlot(ctx context.Context, userID string, date time.Time, slot domain.Slot) error
	ReplaceSlotByStart(ctx context.Context, userID string, date time.Time, originalStart types.TimeString, newSlot domain.Slot) error
	RemoveSlot(ctx context.Context, userID string, date time.Time, slot domain.Slot) error
}

// Locker сериализует записи по ключу (user_id, date)
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// Metrics интерфейс для учета операций
type Metrics interface {
	RecordSlotOperation(operation, result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
