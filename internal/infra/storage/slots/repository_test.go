package slots

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotCalendar/internal/domain"
	"github.com/m04kA/SMC-SlotCalendar/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotCalendar/pkg/ptr"
	"github.com/m04kA/SMC-SlotCalendar/pkg/txmanager"
	"github.com/m04kA/SMC-SlotCalendar/pkg/types"
)

const selectDaysSQL = "SELECT d.id, d.user_id, d.slot_date, s.start_time, s.end_time " +
	"FROM day_slots d LEFT JOIN slots s ON s.day_id = d.id"

var dayColumns = []string{"id", "user_id", "slot_date", "start_time", "end_time"}

func newTestRepository(t *testing.T, script ...statement) (*Repository, *scriptedDB) {
	scripted, db := newScriptedDB(t, script...)
	wrapped := dbmetrics.Wrap(db, nil, "test")
	return NewRepository(wrapped, txmanager.NewTransactionManager(wrapped)), scripted
}

func lockDayStatement(dayID interface{}) statement {
	st := statement{
		query:   "SELECT id FROM day_slots WHERE slot_date = $1 AND user_id = $2 FOR UPDATE",
		args:    []driver.Value{"2024-12-23", "A"},
		columns: []string{"id"},
	}
	if dayID != nil {
		st.rows = [][]driver.Value{{dayID}}
	}
	return st
}

func TestRepository_FindRangeGroupsRowsByDay(t *testing.T) {
	repo, scripted := newTestRepository(t, statement{
		query:   selectDaysSQL + " WHERE d.user_id = $1 AND d.slot_date >= $2 ORDER BY d.slot_date ASC, s.position ASC",
		args:    []driver.Value{"A", "2024-12-23"},
		columns: dayColumns,
		rows: [][]driver.Value{
			{int64(1), "A", date(23), "10:00:00", "10:30:00"},
			{int64(1), "A", date(23), "08:00:00", "08:30:00"},
			{int64(2), "A", date(24), nil, nil},
			{int64(3), "A", date(25), "12:00:00", "13:00:00"},
		},
	})

	// время внутри дня отбрасывается при нормализации
	days, err := repo.FindRange(context.Background(), "A", date(23).Add(15*time.Hour), nil)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, date(23), days[0].Date)
	assert.Equal(t, "A", days[0].UserID)
	assert.Equal(t, []domain.Slot{testSlot("10:00", "10:30"), testSlot("08:00", "08:30")}, days[0].Slots)

	assert.Equal(t, date(24), days[1].Date)
	assert.NotNil(t, days[1].Slots)
	assert.Empty(t, days[1].Slots)

	assert.Equal(t, []domain.Slot{testSlot("12:00", "13:00")}, days[2].Slots)

	scripted.assertDone()
	require.Len(t, scripted.txOptions, 1)
	assert.True(t, scripted.txOptions[0].ReadOnly)
	assert.Equal(t, 1, scripted.commits)
}

func TestRepository_FindRangeWithEndDate(t *testing.T) {
	repo, scripted := newTestRepository(t, statement{
		query: selectDaysSQL +
			" WHERE d.user_id = $1 AND d.slot_date >= $2 AND d.slot_date <= $3 ORDER BY d.slot_date ASC, s.position ASC",
		args:    []driver.Value{"A", "2024-12-23", "2024-12-29"},
		columns: dayColumns,
	})

	days, err := repo.FindRange(context.Background(), "A", date(23), ptr.Ptr(date(29)))
	require.NoError(t, err)
	assert.NotNil(t, days)
	assert.Empty(t, days)
	scripted.assertDone()
}

func TestRepository_FindRangeQueryError(t *testing.T) {
	repo, scripted := newTestRepository(t, statement{
		query: selectDaysSQL + " WHERE d.user_id = $1 AND d.slot_date >= $2 ORDER BY d.slot_date ASC, s.position ASC",
		args:  []driver.Value{"A", "2024-12-23"},
		err:   errors.New("connection reset"),
	})

	_, err := repo.FindRange(context.Background(), "A", date(23), nil)
	require.ErrorIs(t, err, ErrExecQuery)
	assert.Contains(t, err.Error(), "FindRange")
	assert.Equal(t, 1, scripted.rollbacks)
}

func TestRepository_FindRangeRejectsBadStoredTime(t *testing.T) {
	repo, _ := newTestRepository(t, statement{
		query:   selectDaysSQL + " WHERE d.user_id = $1 AND d.slot_date >= $2 ORDER BY d.slot_date ASC, s.position ASC",
		args:    []driver.Value{"A", "2024-12-23"},
		columns: dayColumns,
		rows:    [][]driver.Value{{int64(1), "A", date(23), "8am", "09:00:00"}},
	})

	_, err := repo.FindRange(context.Background(), "A", date(23), nil)
	require.ErrorIs(t, err, ErrScanRow)
}

func TestRepository_FindOne(t *testing.T) {
	findOneSQL := selectDaysSQL + " WHERE d.slot_date = $1 AND d.user_id = $2 ORDER BY s.position ASC"

	t.Run("missing day", func(t *testing.T) {
		repo, scripted := newTestRepository(t, statement{
			query:   findOneSQL,
			args:    []driver.Value{"2024-12-23", "A"},
			columns: dayColumns,
		})

		day, err := repo.FindOne(context.Background(), "A", date(23))
		require.NoError(t, err)
		assert.Nil(t, day)
		scripted.assertDone()
	})

	t.Run("day without slots", func(t *testing.T) {
		repo, _ := newTestRepository(t, statement{
			query:   findOneSQL,
			args:    []driver.Value{"2024-12-23", "A"},
			columns: dayColumns,
			rows:    [][]driver.Value{{int64(5), "A", date(23), nil, nil}},
		})

		day, err := repo.FindOne(context.Background(), "A", date(23))
		require.NoError(t, err)
		require.NotNil(t, day)
		assert.Equal(t, date(23), day.Date)
		assert.Empty(t, day.Slots)
	})
}

func TestRepository_InsertDay(t *testing.T) {
	insertDaySQL := "INSERT INTO day_slots (user_id,slot_date) VALUES ($1,$2) RETURNING id"

	t.Run("day with initial slots", func(t *testing.T) {
		repo, scripted := newTestRepository(t,
			statement{
				query:   insertDaySQL,
				args:    []driver.Value{"A", "2024-12-23"},
				columns: []string{"id"},
				rows:    [][]driver.Value{{int64(7)}},
			},
			statement{
				query: "INSERT INTO slots (day_id,start_time,end_time,position) VALUES ($1,$2,$3,$4),($5,$6,$7,$8)",
				args: []driver.Value{
					int64(7), "10:00:00", "10:30:00", int64(1),
					int64(7), "08:00:00", "08:30:00", int64(2),
				},
			},
		)

		err := repo.InsertDay(context.Background(), "A", date(23),
			[]domain.Slot{testSlot("10:00", "10:30"), testSlot("08:00", "08:30")})
		require.NoError(t, err)
		scripted.assertDone()
		assert.Equal(t, 1, scripted.commits)
		assert.Zero(t, scripted.rollbacks)
	})

	t.Run("empty day", func(t *testing.T) {
		repo, scripted := newTestRepository(t, statement{
			query:   insertDaySQL,
			args:    []driver.Value{"A", "2024-12-23"},
			columns: []string{"id"},
			rows:    [][]driver.Value{{int64(7)}},
		})

		require.NoError(t, repo.InsertDay(context.Background(), "A", date(23), nil))
		scripted.assertDone()
	})

	t.Run("day already exists", func(t *testing.T) {
		repo, scripted := newTestRepository(t, statement{
			query: insertDaySQL,
			args:  []driver.Value{"A", "2024-12-23"},
			err:   &pq.Error{Code: "23505"},
		})

		err := repo.InsertDay(context.Background(), "A", date(23), []domain.Slot{testSlot("08:00", "08:30")})
		require.ErrorIs(t, err, ErrDayExists)
		scripted.assertDone()
		assert.Equal(t, 1, scripted.rollbacks)
		assert.Zero(t, scripted.commits)
	})

	t.Run("duplicate start in initial slots", func(t *testing.T) {
		repo, scripted := newTestRepository(t,
			statement{
				query:   insertDaySQL,
				args:    []driver.Value{"A", "2024-12-23"},
				columns: []string{"id"},
				rows:    [][]driver.Value{{int64(7)}},
			},
			statement{
				query: "INSERT INTO slots (day_id,start_time,end_time,position) VALUES ($1,$2,$3,$4)",
				args:  []driver.Value{int64(7), "08:00:00", "08:30:00", int64(1)},
				err:   fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}),
			},
		)

		err := repo.InsertDay(context.Background(), "A", date(23), []domain.Slot{testSlot("08:00", "08:30")})
		require.ErrorIs(t, err, ErrDuplicateSlot)
		scripted.assertDone()
		assert.Equal(t, 1, scripted.rollbacks)
	})

	t.Run("other database error", func(t *testing.T) {
		repo, _ := newTestRepository(t, statement{
			query: insertDaySQL,
			args:  []driver.Value{"A", "2024-12-23"},
			err:   &pq.Error{Code: "23503"},
		})

		err := repo.InsertDay(context.Background(), "A", date(23), nil)
		require.ErrorIs(t, err, ErrExecQuery)
		assert.NotErrorIs(t, err, ErrDayExists)
	})
}

func TestRepository_AppendSlot(t *testing.T) {
	appendSQL := "INSERT INTO slots (day_id,start_time,end_time,position) " +
		"VALUES ($1,$2,$3,(SELECT COALESCE(MAX(position), 0) + 1 FROM slots WHERE day_id = $4))"
	appendArgs := []driver.Value{int64(7), "10:00:00", "10:30:00", int64(7)}

	t.Run("appends after last position", func(t *testing.T) {
		repo, scripted := newTestRepository(t,
			lockDayStatement(int64(7)),
			statement{query: appendSQL, args: appendArgs},
		)

		require.NoError(t, repo.AppendSlot(context.Background(), "A", date(23), testSlot("10:00", "10:30")))
		scripted.assertDone()
		assert.Equal(t, 1, scripted.commits)
	})

	t.Run("day not found", func(t *testing.T) {
		repo, scripted := newTestRepository(t, lockDayStatement(nil))

		err := repo.AppendSlot(context.Background(), "A", date(23), testSlot("10:00", "10:30"))
		require.ErrorIs(t, err, ErrDayNotFound)
		scripted.assertDone()
		assert.Equal(t, 1, scripted.rollbacks)
	})

	t.Run("duplicate start", func(t *testing.T) {
		repo, scripted := newTestRepository(t,
			lockDayStatement(int64(7)),
			statement{query: appendSQL, args: appendArgs, err: &pq.Error{Code: "23505"}},
		)

		err := repo.AppendSlot(context.Background(), "A", date(23), testSlot("10:00", "10:30"))
		require.ErrorIs(t, err, ErrDuplicateSlot)
		scripted.assertDone()
		assert.Equal(t, 1, scripted.rollbacks)
	})
}

func TestRepository_ReplaceSlotByStart(t *testing.T) {
	updateSQL := "UPDATE slots SET start_time = $1, end_time = $2 WHERE day_id = $3 AND start_time = $4"
	updateArgs := []driver.Value{"09:00:00", "09:30:00", int64(7), "08:00:00"}

	t.Run("replaced", func(t *testing.T) {
		repo, scripted := newTestRepository(t,
			lockDayStatement(int64(7)),
			statement{query: updateSQL, args: updateArgs, result: driver.RowsAffected(1)},
		)

		err := repo.ReplaceSlotByStart(context.Background(), "A", date(23),
			types.MustTimeString("08:00"), testSlot("09:00", "09:30"))
		require.NoError(t, err)
		scripted.assertDone()
		assert.Equal(t, 1, scripted.commits)
	})

	t.Run("slot not found", func(t *testing.T) {
		repo, scripted := newTestRepository(t,
			lockDayStatement(int64(7)),
			statement{query: updateSQL, args: updateArgs, result: driver.RowsAffected(0)},
		)

		err := repo.ReplaceSlotByStart(context.Background(), "A", date(23),
			types.MustTimeString("08:00"), testSlot("09:00", "09:30"))
		require.ErrorIs(t, err, ErrSlotNotFound)
		scripted.assertDone()
		assert.Equal(t, 1, scripted.rollbacks)
	})

	t.Run("day not found", func(t *testing.T) {
		repo, _ := newTestRepository(t, lockDayStatement(nil))

		err := repo.ReplaceSlotByStart(context.Background(), "A", date(23),
			types.MustTimeString("08:00"), testSlot("09:00", "09:30"))
		require.ErrorIs(t, err, ErrDayNotFound)
	})

	t.Run("new start collides", func(t *testing.T) {
		repo, _ := newTestRepository(t,
			lockDayStatement(int64(7)),
			statement{query: updateSQL, args: updateArgs, err: &pq.Error{Code: "23505"}},
		)

		err := repo.ReplaceSlotByStart(context.Background(), "A", date(23),
			types.MustTimeString("08:00"), testSlot("09:00", "09:30"))
		require.ErrorIs(t, err, ErrDuplicateSlot)
	})
}

func TestRepository_RemoveSlotUsesDaySubselect(t *testing.T) {
	repo, scripted := newTestRepository(t, statement{
		query: "DELETE FROM slots WHERE day_id = (SELECT id FROM day_slots WHERE user_id = $1 AND slot_date = $2) " +
			"AND end_time = $3 AND start_time = $4",
		args:   []driver.Value{"A", "2024-12-23", "08:30:00", "08:00:00"},
		result: driver.RowsAffected(0),
	})

	// отсутствие совпадения не ошибка
	require.NoError(t, repo.RemoveSlot(context.Background(), "A", date(23), testSlot("08:00", "08:30")))
	scripted.assertDone()
	assert.Empty(t, scripted.txOptions)
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pq.Error{Code: "23505"}
	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", unique)))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain")))
}

func TestFormatDate(t *testing.T) {
	in := time.Date(2024, 12, 23, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-12-23", formatDate(in))
}
