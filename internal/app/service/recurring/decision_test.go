package recurring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contasync/billing/internal/models"
	"github.com/contasync/billing/pkg/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassifyWindow(t *testing.T) {
	tpl := &models.RecurringTemplate{
		ID:        "tpl-1",
		Frequency: types.FrequencyMonthly,
	}
	horizon := day(2024, time.March, 8) // today 2024-03-01 + 7d lookahead

	tests := []struct {
		name      string
		candidate time.Time
		want      Eligibility
	}{
		{"due today", day(2024, time.March, 1), EligibilityGenerate},
		{"due at horizon", day(2024, time.March, 8), EligibilityGenerate},
		{"one past horizon", day(2024, time.March, 9), EligibilityTooFarAhead},
		{"overdue", day(2024, time.February, 20), EligibilityGenerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tpl, tt.candidate, horizon)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyZeroLookahead(t *testing.T) {
	// Financial entries use a zero-day window: due today or earlier only.
	tpl := &models.RecurringTemplate{ID: "tpl-fin", Frequency: types.FrequencyMonthly}
	horizon := day(2024, time.March, 1)

	got, err := Classify(tpl, day(2024, time.March, 1), horizon)
	require.NoError(t, err)
	assert.Equal(t, EligibilityGenerate, got)

	got, err = Classify(tpl, day(2024, time.March, 2), horizon)
	require.NoError(t, err)
	assert.Equal(t, EligibilityTooFarAhead, got)
}

func TestClassifyEndDate(t *testing.T) {
	end := day(2024, time.March, 5)
	tpl := &models.RecurringTemplate{
		ID:        "tpl-2",
		Frequency: types.FrequencyMonthly,
		EndDate:   &end,
	}
	horizon := day(2024, time.March, 8)

	got, err := Classify(tpl, day(2024, time.March, 5), horizon)
	require.NoError(t, err)
	assert.Equal(t, EligibilityGenerate, got)

	got, err = Classify(tpl, day(2024, time.March, 6), horizon)
	require.NoError(t, err)
	assert.Equal(t, EligibilityExpired, got)

	// Window check wins over expiry when both apply.
	got, err = Classify(tpl, day(2024, time.March, 20), horizon)
	require.NoError(t, err)
	assert.Equal(t, EligibilityTooFarAhead, got)
}

func TestClassifyUnknownFrequency(t *testing.T) {
	tpl := &models.RecurringTemplate{ID: "tpl-3", Frequency: types.Frequency("weekly")}

	_, err := Classify(tpl, day(2024, time.March, 1), day(2024, time.March, 8))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weekly")
}
