package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/m04kA/SMC-SlotCalendar/internal/domain"
	slotsService "github.com/m04kA/SMC-SlotCalendar/internal/service/slots"
	"github.com/m04kA/SMC-SlotCalendar/internal/service/slots/models"
	"github.com/m04kA/SMC-SlotCalendar/pkg/types"
)

const (
	slotMinutes = 30
	// Начала слотов: 08:00, 08:30 ... 22:00
	firstStartMinute = 8 * 60
	startChoices     = (22*60-firstStartMinute)/slotMinutes + 1
)

// slotCountBucket диапазон количества слотов на день и его вес
type slotCountBucket struct {
	min, max int
	weight   float64
}

var slotCountBuckets = []slotCountBucket{
	{min: 0, max: 0, weight: 0.1},
	{min: 1, max: 6, weight: 0.3},
	{min: 7, max: 13, weight: 0.4},
	{min: 14, max: domain.MaxSlotsPerDay, weight: 0.2},
}

type SlotAdder interface {
	AddSlot(ctx context.Context, req *models.SlotRequest) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Stats итог заполнения
type Stats struct {
	Days     int
	Added    int
	Rejected int
}

// Seeder заполняет календарь случайными получасовыми слотами через сервис,
// поэтому правила емкости и дубликатов применяются как к обычным запросам
type Seeder struct {
	service SlotAdder
	logger  Logger
	rnd     *rand.Rand
	users   []string
	delay   time.Duration
}

func NewSeeder(service SlotAdder, logger Logger, rnd *rand.Rand, users []string, delay time.Duration) *Seeder {
	return &Seeder{
		service: service,
		logger:  logger,
		rnd:     rnd,
		users:   users,
		delay:   delay,
	}
}

// Run заполняет дни from..to включительно
func (s *Seeder) Run(ctx context.Context, from, to time.Time) (Stats, error) {
	var stats Stats

	for date := domain.NormalizeDate(from); !date.After(domain.NormalizeDate(to)); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		count := s.pickSlotCount()
		if count == 0 {
			continue
		}

		s.logger.Info("Adding %d slots for %s", count, date.Format(domain.DateFormat))
		stats.Days++

		for _, start := range s.pickStarts(count) {
			end, err := start.AddMinutes(slotMinutes)
			if err != nil {
				return stats, err
			}

			userID := s.users[s.rnd.IntN(len(s.users))]
			err = s.service.AddSlot(ctx, &models.SlotRequest{
				UserID: userID,
				Date:   date,
				Slot:   models.Slot{StartTime: start, EndTime: end},
			})

			switch {
			case err == nil:
				stats.Added++
			case errors.Is(err, slotsService.ErrDuplicate), errors.Is(err, slotsService.ErrCapacity):
				s.logger.Warn("Skipped slot %s for %s on %s: %v", start, userID, date.Format(domain.DateFormat), err)
				stats.Rejected++
			default:
				return stats, err
			}
		}

		if s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return stats, ctx.Err()
			}
		}
	}

	return stats, nil
}

// pickSlotCount выбирает количество слотов на день по весам slotCountBuckets
func (s *Seeder) pickSlotCount() int {
	roll := s.rnd.Float64()
	for _, bucket := range slotCountBuckets {
		if roll < bucket.weight {
			return bucket.min + s.rnd.IntN(bucket.max-bucket.min+1)
		}
		roll -= bucket.weight
	}
	last := slotCountBuckets[len(slotCountBuckets)-1]
	return last.min + s.rnd.IntN(last.max-last.min+1)
}

// pickStarts выбирает count различных начал на получасовой сетке
func (s *Seeder) pickStarts(count int) []types.TimeString {
	count = min(count, startChoices)
	offsets := s.rnd.Perm(startChoices)[:count]

	starts := make([]types.TimeString, 0, count)
	for _, offset := range offsets {
		start, err := types.MustTimeString("00:00").AddMinutes(firstStartMinute + offset*slotMinutes)
		if err != nil {
			continue
		}
		starts = append(starts, start)
	}
	return starts
}
