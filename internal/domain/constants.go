package domain

// MaxSlotsPerDay вместимость одного дня
const MaxSlotsPerDay = 20

// DateFormat формат даты в API и хранилище (YYYY-MM-DD)
const DateFormat = "2006-01-02"
