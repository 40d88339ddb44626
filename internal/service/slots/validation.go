package slots

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-SlotCalendar/internal/domain"
)

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	return nil
}

func validateDate(date time.Time) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	return nil
}

func validateRange(startDate time.Time, endDate *time.Time) error {
	if err := validateDate(startDate); err != nil {
		return err
	}
	if endDate != nil && domain.NormalizeDate(*endDate).Before(domain.NormalizeDate(startDate)) {
		return fmt.Errorf("%w: end_date %s is before start_date %s",
			ErrValidation, endDate.Format(domain.DateFormat), startDate.Format(domain.DateFormat))
	}
	return nil
}

// validateSlot проверяет инвариант start < end
func validateSlot(slot domain.Slot) error {
	if !slot.IsValid() {
		return fmt.Errorf("%w: start_time %s must be before end_time %s", ErrValidation, slot.Start, slot.End)
	}
	return nil
}
