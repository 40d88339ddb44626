package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// Форматы времени суток
const (
	timeFormatSeconds = "15:04:05" // ISO-8601 HH:MM:SS, каноническая форма
	timeFormatMinutes = "15:04"    // HH:MM
)

const secondsPerDay = 24 * 60 * 60

var (
	// ErrInvalidTimeString возвращается при некорректном формате времени
	ErrInvalidTimeString = errors.New("invalid time string format")

	// ErrTimeOverflow возвращается, когда результат выходит за пределы суток
	ErrTimeOverflow = errors.New("time of day overflow")
)

// TimeString время суток без даты и часового пояса с точностью до секунды
// Хранится как количество секунд от полуночи, поэтому значения сравнимы через ==
type TimeString struct {
	seconds int
}

// NewTimeString создает TimeString из time.Time (дата и зона отбрасываются)
func NewTimeString(t time.Time) TimeString {
	return TimeString{seconds: t.Hour()*3600 + t.Minute()*60 + t.Second()}
}

// NewTimeStringFromString парсит строку формата H:MM, HH:MM или HH:MM:SS[.fff]
// Час может быть однозначным, дробная часть секунд отбрасывается
func NewTimeStringFromString(s string) (TimeString, error) {
	for _, layout := range []string{timeFormatSeconds, timeFormatMinutes} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return NewTimeString(t), nil
	}
	return TimeString{}, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
}

// MustTimeString парсит строку и паникует при ошибке (для констант и тестов)
func MustTimeString(s string) TimeString {
	ts, err := NewTimeStringFromString(s)
	if err != nil {
		panic(err)
	}
	return ts
}

// String возвращает время в формате ISO-8601 HH:MM:SS
func (t TimeString) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.seconds/3600, t.seconds%3600/60, t.seconds%60)
}

func (t TimeString) IsBefore(other TimeString) bool {
	return t.seconds < other.seconds
}

// Compare возвращает -1, 0 или 1 (для slices.SortFunc)
func (t TimeString) Compare(other TimeString) int {
	switch {
	case t.seconds < other.seconds:
		return -1
	case t.seconds > other.seconds:
		return 1
	default:
		return 0
	}
}

// AddMinutes возвращает время, сдвинутое на minutes минут
// Возвращает ErrTimeOverflow, если результат выходит за пределы суток
func (t TimeString) AddMinutes(minutes int) (TimeString, error) {
	next := t.seconds + minutes*60
	if next < 0 || next >= secondsPerDay {
		return TimeString{}, fmt.Errorf("%w: %s%+dm", ErrTimeOverflow, t, minutes)
	}
	return TimeString{seconds: next}, nil
}

// Value реализует driver.Valuer (хранение в БД строкой ISO-8601)
func (t TimeString) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan реализует sql.Scanner
func (t *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return t.parseInto(v)
	case []byte:
		return t.parseInto(string(v))
	case time.Time:
		*t = NewTimeString(v)
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidTimeString, src)
	}
}

// MarshalText реализует encoding.TextMarshaler (используется JSON-кодеками)
func (t TimeString) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler
func (t *TimeString) UnmarshalText(data []byte) error {
	return t.parseInto(string(data))
}

func (t *TimeString) parseInto(s string) error {
	parsed, err := NewTimeStringFromString(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
