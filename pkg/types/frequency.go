package types

import "fmt"

// Frequency is a recurring template's billing cadence.
type Frequency string

const (
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiannual Frequency = "semiannual"
	FrequencyYearly     Frequency = "yearly"
)

// Months returns the number of months one period spans. An unknown frequency
// is an error for the template carrying it, not for the whole batch.
func (f Frequency) Months() (int, error) {
	switch f {
	case FrequencyMonthly:
		return 1, nil
	case FrequencyQuarterly:
		return 3, nil
	case FrequencySemiannual:
		return 6, nil
	case FrequencyYearly:
		return 12, nil
	default:
		return 0, fmt.Errorf("unknown frequency: %s", f)
	}
}

func (f Frequency) IsValid() bool {
	_, err := f.Months()
	return err == nil
}
