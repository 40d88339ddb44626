package slots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-SlotCalendar/internal/domain"
	"github.com/m04kA/SMC-SlotCalendar/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotCalendar/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SlotCalendar/pkg/types"
)

const (
	tableDays  = "day_slots"
	tableSlots = "slots"

	pgUniqueViolation = "23505"
)

// Repository PostgreSQL-репозиторий слотов
// Запись дня - строка day_slots, слоты - строки slots с порядковым номером position.
// Время хранится строками ISO-8601 (HH:MM:SS), дата - типом DATE
type Repository struct {
	db        DBExecutor
	txManager TransactionManager
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor, txManager TransactionManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

// FindRange получает записи пользователя начиная с startDate (включительно)
// Если endDate == nil, верхней границы нет. Результат отсортирован по дате
func (r *Repository) FindRange(ctx context.Context, userID string, startDate time.Time, endDate *time.Time) ([]*domain.DaySlots, error) {
	selectBuilder := r.selectDays().
		Where(squirrel.Eq{"d.user_id": userID}).
		Where(squirrel.GtOrEq{"d.slot_date": formatDate(startDate)})

	if endDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"d.slot_date": formatDate(*endDate)})
	}

	query, args, err := selectBuilder.OrderBy("d.slot_date ASC", "s.position ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindRange - build select query: %v", ErrBuildQuery, err)
	}

	return r.queryDays(ctx, "FindRange", query, args)
}

// FindOne получает запись на конкретную дату
// Возвращает nil, nil, если записи нет
func (r *Repository) FindOne(ctx context.Context, userID string, date time.Time) (*domain.DaySlots, error) {
	query, args, err := r.selectDays().
		Where(squirrel.Eq{"d.user_id": userID, "d.slot_date": formatDate(date)}).
		OrderBy("s.position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindOne - build select query: %v", ErrBuildQuery, err)
	}

	days, err := r.queryDays(ctx, "FindOne", query, args)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, nil
	}

	return days[0], nil
}

// InsertDay создает запись дня вместе с начальными слотами в одной транзакции
// Возвращает ErrDayExists, если запись уже есть
func (r *Repository) InsertDay(ctx context.Context, userID string, date time.Time, initial []domain.Slot) error {
	return r.txManager.Do(ctx, func(txCtx context.Context) error {
		executor := dbmetrics.GetExecutor(txCtx, r.db)

		query, args, err := psqlbuilder.Insert(tableDays).
			Columns("user_id", "slot_date").
			Values(userID, formatDate(date)).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: InsertDay - build insert query: %v", ErrBuildQuery, err)
		}

		var dayID int64
		if err := executor.QueryRowContext(txCtx, query, args...).Scan(&dayID); err != nil {
			if isUniqueViolation(err) {
				return ErrDayExists
			}
			return fmt.Errorf("%w: InsertDay - insert day: %v", ErrExecQuery, err)
		}

		if len(initial) == 0 {
			return nil
		}

		insertBuilder := psqlbuilder.Insert(tableSlots).
			Columns("day_id", "start_time", "end_time", "position")
		for i, slot := range initial {
			insertBuilder = insertBuilder.Values(dayID, slot.Start, slot.End, i+1)
		}

		query, args, err = insertBuilder.ToSql()
		if err != nil {
			return fmt.Errorf("%w: InsertDay - build slots insert query: %v", ErrBuildQuery, err)
		}

		if _, err := executor.ExecContext(txCtx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateSlot
			}
			return fmt.Errorf("%w: InsertDay - insert slots: %v", ErrExecQuery, err)
		}

		return nil
	})
}

// AppendSlot добавляет слот в конец существующей записи
// Возвращает ErrDayNotFound, если записи нет, и ErrDuplicateSlot при совпадении начала
func (r *Repository) AppendSlot(ctx context.Context, userID string, date time.Time, slot domain.Slot) error {
	return r.txManager.Do(ctx, func(txCtx context.Context) error {
		dayID, err := r.lockDay(txCtx, userID, date)
		if err != nil {
			return err
		}

		query, args, err := psqlbuilder.Insert(tableSlots).
			Columns("day_id", "start_time", "end_time", "position").
			Values(
				dayID,
				slot.Start,
				slot.End,
				squirrel.Expr("(SELECT COALESCE(MAX(position), 0) + 1 FROM slots WHERE day_id = ?)", dayID),
			).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: AppendSlot - build insert query: %v", ErrBuildQuery, err)
		}

		executor := dbmetrics.GetExecutor(txCtx, r.db)
		if _, err := executor.ExecContext(txCtx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateSlot
			}
			return fmt.Errorf("%w: AppendSlot - execute insert: %v", ErrExecQuery, err)
		}

		return nil
	})
}

// ReplaceSlotByStart заменяет слот с началом originalStart на newSlot, сохраняя его позицию
// Возвращает ErrDayNotFound или ErrSlotNotFound
func (r *Repository) ReplaceSlotByStart(ctx context.Context, userID string, date time.Time, originalStart types.TimeString, newSlot domain.Slot) error {
	return r.txManager.Do(ctx, func(txCtx context.Context) error {
		dayID, err := r.lockDay(txCtx, userID, date)
		if err != nil {
			return err
		}

		query, args, err := psqlbuilder.Update(tableSlots).
			Set("start_time", newSlot.Start).
			Set("end_time", newSlot.End).
			Where(squirrel.Eq{"day_id": dayID, "start_time": originalStart}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: ReplaceSlotByStart - build update query: %v", ErrBuildQuery, err)
		}

		executor := dbmetrics.GetExecutor(txCtx, r.db)
		result, err := executor.ExecContext(txCtx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateSlot
			}
			return fmt.Errorf("%w: ReplaceSlotByStart - execute update: %v", ErrExecQuery, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: ReplaceSlotByStart - get rows affected: %v", ErrExecQuery, err)
		}

		if rowsAffected == 0 {
			return ErrSlotNotFound
		}

		return nil
	})
}

// RemoveSlot удаляет слот с точно совпадающими началом и концом
// Отсутствие совпадения не является ошибкой
func (r *Repository) RemoveSlot(ctx context.Context, userID string, date time.Time, slot domain.Slot) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(tableSlots).
		Where("day_id = (SELECT id FROM day_slots WHERE user_id = ? AND slot_date = ?)", userID, formatDate(date)).
		Where(squirrel.Eq{"start_time": slot.Start, "end_time": slot.End}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: RemoveSlot - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: RemoveSlot - execute delete: %v", ErrExecQuery, err)
	}

	return nil
}

// lockDay получает id записи дня с блокировкой строки (FOR UPDATE)
func (r *Repository) lockDay(ctx context.Context, userID string, date time.Time) (int64, error) {
	query, args, err := psqlbuilder.Select("id").
		From(tableDays).
		Where(squirrel.Eq{"user_id": userID, "slot_date": formatDate(date)}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: lockDay - build select query: %v", ErrBuildQuery, err)
	}

	var dayID int64
	err = dbmetrics.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&dayID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDayNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: lockDay - scan day id: %v", ErrScanRow, err)
	}

	return dayID, nil
}

// selectDays общий SELECT записей дней со слотами (LEFT JOIN: пустой день тоже запись)
func (r *Repository) selectDays() squirrel.SelectBuilder {
	return psqlbuilder.Select(
		"d.id",
		"d.user_id",
		"d.slot_date",
		"s.start_time",
		"s.end_time",
	).
		From(tableDays + " d").
		LeftJoin(tableSlots + " s ON s.day_id = d.id")
}

// queryDays выполняет запрос selectDays в read-only транзакции и группирует строки по записям дней
// Строки одного дня идут подряд благодаря сортировке по дате
func (r *Repository) queryDays(ctx context.Context, op string, query string, args []interface{}) ([]*domain.DaySlots, error) {
	var days []*domain.DaySlots

	err := r.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		rows, err := dbmetrics.GetExecutor(txCtx, r.db).QueryContext(txCtx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
		}
		defer rows.Close()

		days, err = scanDays(rows)
		if err != nil {
			return fmt.Errorf("%w: %s - %v", ErrScanRow, op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return days, nil
}

func scanDays(rows *sql.Rows) ([]*domain.DaySlots, error) {
	days := make([]*domain.DaySlots, 0)
	var (
		current   *domain.DaySlots
		currentID int64
	)

	for rows.Next() {
		var (
			dayID     int64
			userID    string
			slotDate  time.Time
			startTime sql.Null[types.TimeString]
			endTime   sql.Null[types.TimeString]
		)

		if err := rows.Scan(&dayID, &userID, &slotDate, &startTime, &endTime); err != nil {
			return nil, fmt.Errorf("scan row: %v", err)
		}

		if current == nil || dayID != currentID {
			current = &domain.DaySlots{
				UserID: userID,
				Date:   domain.NormalizeDate(slotDate),
				Slots:  make([]domain.Slot, 0),
			}
			currentID = dayID
			days = append(days, current)
		}

		// У дня без слотов LEFT JOIN возвращает NULL
		if !startTime.Valid || !endTime.Valid {
			continue
		}

		current.Slots = append(current.Slots, domain.Slot{Start: startTime.V, End: endTime.V})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %v", err)
	}

	return days, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

// formatDate передает дату как текст YYYY-MM-DD, чтобы на сравнение с DATE не влиял часовой пояс сессии
func formatDate(date time.Time) string {
	return domain.NormalizeDate(date).Format(domain.DateFormat)
}
