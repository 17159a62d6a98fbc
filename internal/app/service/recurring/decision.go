package recurring

import (
	"fmt"
	"time"

	"github.com/contasync/billing/internal/models"
)

// Eligibility classifies one template against the run's generation window.
type Eligibility int

const (
	// EligibilityGenerate means a charge is due within the window.
	EligibilityGenerate Eligibility = iota
	// EligibilityTooFarAhead means the candidate date is beyond the window;
	// leave the template untouched for a later run.
	EligibilityTooFarAhead
	// EligibilityExpired means the candidate date passes the template's end
	// date; the template should be deactivated.
	EligibilityExpired
)

// Classify is the pure scheduling decision: given the candidate due date,
// the run's horizon (today plus lookahead) and the template's end date,
// decide what the generator should do. Checks run in window-then-expiry
// order, matching the cron's historical behavior.
func Classify(tpl *models.RecurringTemplate, candidate, horizon time.Time) (Eligibility, error) {
	if !tpl.Frequency.IsValid() {
		return 0, fmt.Errorf("template %s has unknown frequency %q", tpl.ID, tpl.Frequency)
	}
	if candidate.After(horizon) {
		return EligibilityTooFarAhead, nil
	}
	if tpl.ExpiresBefore(candidate) {
		return EligibilityExpired, nil
	}
	return EligibilityGenerate, nil
}
