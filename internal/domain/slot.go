package domain

import (
	"slices"
	"time"

	"github.com/m04kA/SMC-SlotCalendar/pkg/types"
)

// Slot зарезервированный интервал времени суток
// Инвариант: Start < End. Внутри дня слот идентифицируется по Start
type Slot struct {
	Start types.TimeString
	End   types.TimeString
}

// IsValid returns true if the slot starts strictly before it ends
func (s Slot) IsValid() bool {
	return s.Start.IsBefore(s.End)
}

// Equal returns true if both bounds are identical (exact-match duplicate)
func (s Slot) Equal(other Slot) bool {
	return s.Start == other.Start && s.End == other.End
}

// Overlaps returns true if the intervals intersect
// Слоты, которые только граничат (10:00-10:30 и 10:30-11:00), не пересекаются
func (s Slot) Overlaps(other Slot) bool {
	return s.Start.IsBefore(other.End) && other.Start.IsBefore(s.End)
}

// DaySlots набор слотов пользователя на одну дату
// Порядок Slots - порядок добавления
type DaySlots struct {
	UserID string
	Date   time.Time
	Slots  []Slot
}

// Contains returns true if an exact (start, end) match is present
func (d *DaySlots) Contains(slot Slot) bool {
	return slices.ContainsFunc(d.Slots, slot.Equal)
}

// IndexByStart возвращает индекс слота с указанным началом или -1
func (d *DaySlots) IndexByStart(start types.TimeString) int {
	return slices.IndexFunc(d.Slots, func(s Slot) bool { return s.Start == start })
}

// IsFull returns true if the day has reached MaxSlotsPerDay
func (d *DaySlots) IsFull() bool {
	return len(d.Slots) >= MaxSlotsPerDay
}

// Available возвращает количество свободных мест (не меньше 0)
func (d *DaySlots) Available() int {
	return max(0, MaxSlotsPerDay-len(d.Slots))
}

// SortedSlots возвращает копию слотов, отсортированную по Start
// Сортировка стабильная: при равных Start сохраняется порядок добавления
func (d *DaySlots) SortedSlots() []Slot {
	sorted := slices.Clone(d.Slots)
	if sorted == nil {
		sorted = []Slot{}
	}
	slices.SortStableFunc(sorted, func(a, b Slot) int {
		return a.Start.Compare(b.Start)
	})
	return sorted
}

// OverlappingSlots возвращает уже сохраненные слоты, пересекающиеся со slot
func (d *DaySlots) OverlappingSlots(slot Slot) []Slot {
	var overlapping []Slot
	for _, s := range d.Slots {
		if s.Overlaps(slot) {
			overlapping = append(overlapping, s)
		}
	}
	return overlapping
}

// NormalizeDate обнуляет время и переводит дату в UTC
// Дата хранится как полночь, часовые пояса не поддерживаются
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
