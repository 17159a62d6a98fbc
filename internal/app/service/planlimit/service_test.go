package planlimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contasync/billing/pkg/types"
)

func starterPlan() *types.Plan {
	return &types.Plan{
		ID:         "starter",
		Name:       "Starter",
		PriceCents: 4900,
		Limits: types.PlanLimits{
			MaxClients:            10,
			MaxDocuments:          100,
			MaxRecurringTemplates: 5,
		},
		Active: true,
	}
}

func TestEvaluateQuotaBoundary(t *testing.T) {
	plan := starterPlan()

	tests := []struct {
		name    string
		current int64
		allowed bool
	}{
		{"below quota", 8, true},
		{"one short of quota", 9, true},
		{"at quota", 10, false},
		{"over quota", 11, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(plan, types.ResourceTypeClients, tt.current, nil)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.current, d.Usage.Current)
			assert.Equal(t, int64(10), d.Usage.Limit)
			assert.False(t, d.Usage.IsUnlimited)
		})
	}
}

func TestEvaluateUnlimitedSentinel(t *testing.T) {
	plan := starterPlan()
	plan.Limits.MaxClients = types.UnlimitedQuota

	d := Evaluate(plan, types.ResourceTypeClients, 1_000_000, nil)
	assert.True(t, d.Allowed)
	assert.True(t, d.Usage.IsUnlimited)
	assert.Equal(t, types.UnlimitedQuota, d.Usage.Limit)
	assert.Empty(t, d.Message)
}

func TestEvaluateDenialMessaging(t *testing.T) {
	plan := starterPlan()

	d := Evaluate(plan, types.ResourceTypeClients, 10, []string{"Pro", "Enterprise"})
	require.False(t, d.Allowed)
	assert.Contains(t, d.Message, "Starter")
	assert.Contains(t, d.Message, "10")
	assert.Equal(t, []string{"Pro", "Enterprise"}, d.SuggestedPlans)
	assert.NotEmpty(t, d.UpgradeMessage)

	// Non-client denials carry no upgrade suggestions.
	d = Evaluate(plan, types.ResourceTypeRecurringTemplates, 5, []string{"Pro"})
	require.False(t, d.Allowed)
	assert.Empty(t, d.SuggestedPlans)
	assert.Empty(t, d.UpgradeMessage)
}

func TestEvaluatePercentage(t *testing.T) {
	plan := starterPlan()

	d := Evaluate(plan, types.ResourceTypeClients, 5, nil)
	assert.InDelta(t, 50.0, d.Usage.Percentage, 0.001)
}
