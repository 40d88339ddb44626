package slots

import "errors"

var (
	// ErrValidation возвращается при некорректных входных данных (например, start >= end)
	ErrValidation = errors.New("invalid slot data")

	// ErrDuplicate возвращается, когда такой слот уже есть в записи дня
	ErrDuplicate = errors.New("slot already exists")

	// ErrCapacity возвращается, когда в дне уже MaxSlotsPerDay слотов
	ErrCapacity = errors.New("day is fully booked")

	// ErrNoData возвращается, когда нет записи или слота для запрошенного ключа
	ErrNoData = errors.New("no data found")

	// ErrConflict возвращается, когда запись дня уже существует
	ErrConflict = errors.New("day record already exists")

	// ErrStorageUnavailable возвращается при сбоях хранилища или блокировок
	ErrStorageUnavailable = errors.New("service: storage unavailable")
)
