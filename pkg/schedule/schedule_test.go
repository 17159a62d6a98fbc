package schedule

import (
	"testing"
	"time"

	"github.com/contasync/billing/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		name       string
		last       time.Time
		frequency  types.Frequency
		dayOfMonth int
		want       time.Time
		wantErr    bool
	}{
		{name: "monthly plain", last: date(2024, time.March, 10), frequency: types.FrequencyMonthly, dayOfMonth: 10, want: date(2024, time.April, 10)},
		{name: "monthly leap year clamp", last: date(2024, time.January, 31), frequency: types.FrequencyMonthly, dayOfMonth: 31, want: date(2024, time.February, 29)},
		{name: "monthly non-leap clamp", last: date(2023, time.January, 31), frequency: types.FrequencyMonthly, dayOfMonth: 31, want: date(2023, time.February, 28)},
		{name: "monthly 30 into february", last: date(2023, time.January, 30), frequency: types.FrequencyMonthly, dayOfMonth: 30, want: date(2023, time.February, 28)},
		{name: "monthly recovers target day after clamp", last: date(2024, time.February, 29), frequency: types.FrequencyMonthly, dayOfMonth: 31, want: date(2024, time.March, 31)},
		{name: "monthly year rollover", last: date(2023, time.December, 15), frequency: types.FrequencyMonthly, dayOfMonth: 15, want: date(2024, time.January, 15)},
		{name: "quarterly", last: date(2024, time.January, 5), frequency: types.FrequencyQuarterly, dayOfMonth: 5, want: date(2024, time.April, 5)},
		{name: "quarterly november rollover", last: date(2023, time.November, 30), frequency: types.FrequencyQuarterly, dayOfMonth: 30, want: date(2024, time.February, 29)},
		{name: "semiannual", last: date(2024, time.August, 31), frequency: types.FrequencySemiannual, dayOfMonth: 31, want: date(2025, time.February, 28)},
		{name: "yearly", last: date(2024, time.June, 15), frequency: types.FrequencyYearly, dayOfMonth: 15, want: date(2025, time.June, 15)},
		{name: "yearly from leap day", last: date(2024, time.February, 29), frequency: types.FrequencyYearly, dayOfMonth: 29, want: date(2025, time.February, 28)},
		{name: "day differs from last date", last: date(2024, time.May, 3), frequency: types.FrequencyMonthly, dayOfMonth: 20, want: date(2024, time.June, 20)},
		{name: "unknown frequency", last: date(2024, time.May, 3), frequency: types.Frequency("weekly"), dayOfMonth: 3, wantErr: true},
		{name: "day of month zero", last: date(2024, time.May, 3), frequency: types.FrequencyMonthly, dayOfMonth: 0, wantErr: true},
		{name: "day of month too large", last: date(2024, time.May, 3), frequency: types.FrequencyMonthly, dayOfMonth: 32, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDueDate(tt.last, tt.frequency, tt.dayOfMonth, time.UTC)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextDueDate_Deterministic(t *testing.T) {
	last := date(2024, time.January, 31)
	first, err := NextDueDate(last, types.FrequencyMonthly, 31, time.UTC)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := NextDueDate(last, types.FrequencyMonthly, 31, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNextDueDate_NormalizesToMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	last := time.Date(2024, time.March, 10, 17, 42, 9, 0, loc)
	got, err := NextDueDate(last, types.FrequencyMonthly, 10, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.April, 10, 0, 0, 0, 0, loc), got)
}

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(time.Date(2024, time.July, 1, 23, 59, 59, 0, time.UTC), time.UTC)
	assert.Equal(t, date(2024, time.July, 1), got)
}
