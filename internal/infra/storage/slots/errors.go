package slots

import "errors"

// Ошибки общие для всех реализаций хранилища (postgres, mongo, memory)
var (
	// ErrDayNotFound возвращается, когда записи на (user_id, date) нет
	ErrDayNotFound = errors.New("slots.repository: day record not found")

	// ErrDayExists возвращается при повторном создании записи на (user_id, date)
	ErrDayExists = errors.New("slots.repository: day record already exists")

	// ErrSlotNotFound возвращается, когда в записи нет слота с указанным началом
	ErrSlotNotFound = errors.New("slots.repository: slot not found")

	// ErrDuplicateSlot возвращается при нарушении уникальности начала слота внутри дня
	ErrDuplicateSlot = errors.New("slots.repository: slot with this start already exists")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("slots.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения запроса
	ErrExecQuery = errors.New("slots.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("slots.repository: failed to scan row")
)
