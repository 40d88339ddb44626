package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "minutes", input: "08:30", want: "08:30:00"},
		{name: "seconds", input: "08:30:15", want: "08:30:15"},
		{name: "midnight", input: "00:00", want: "00:00:00"},
		{name: "last second", input: "23:59:59", want: "23:59:59"},
		{name: "hour out of range", input: "24:00", wantErr: true},
		{name: "garbage", input: "8am", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "single digit hour", input: "8:00", want: "08:00:00"},
		{name: "single digit hour with seconds", input: "8:05:09", want: "08:05:09"},
		{name: "fractional seconds truncated", input: "08:30:00.5", want: "08:30:00"},
		{name: "microseconds truncated", input: "23:59:59.999999", want: "23:59:59"},
		{name: "single digit minute", input: "08:5", wantErr: true},
		{name: "fraction after minutes", input: "08:30.5", wantErr: true},
		{name: "minute out of range", input: "08:60", wantErr: true},
		{name: "trailing text", input: "08:30:00Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTimeStringFromString(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTimeString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestTimeString_Ordering(t *testing.T) {
	early := MustTimeString("08:00")
	late := MustTimeString("08:30")

	assert.True(t, early.IsBefore(late))
	assert.False(t, late.IsBefore(early))
	assert.False(t, early.IsBefore(early))
	assert.Equal(t, -1, early.Compare(late))
	assert.Equal(t, 1, late.Compare(early))
	assert.Equal(t, 0, early.Compare(MustTimeString("08:00:00")))
	assert.Equal(t, early, MustTimeString("08:00:00"))
}

func TestTimeString_AddMinutes(t *testing.T) {
	next, err := MustTimeString("21:30").AddMinutes(30)
	require.NoError(t, err)
	assert.Equal(t, "22:00:00", next.String())

	_, err = MustTimeString("23:45").AddMinutes(30)
	assert.ErrorIs(t, err, ErrTimeOverflow)
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString

	require.NoError(t, ts.Scan("09:15:00"))
	assert.Equal(t, "09:15:00", ts.String())

	require.NoError(t, ts.Scan([]byte("10:45")))
	assert.Equal(t, "10:45:00", ts.String())

	require.NoError(t, ts.Scan(time.Date(2024, 12, 23, 7, 5, 3, 0, time.UTC)))
	assert.Equal(t, "07:05:03", ts.String())

	assert.Error(t, ts.Scan(42))

	value, err := MustTimeString("12:00").Value()
	require.NoError(t, err)
	assert.Equal(t, "12:00:00", value)
}

func TestTimeString_Text(t *testing.T) {
	var ts TimeString
	require.NoError(t, ts.UnmarshalText([]byte("18:20")))

	text, err := ts.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "18:20:00", string(text))
}
