package types

// UnlimitedQuota is the sentinel for "no limit" on a plan quota.
const UnlimitedQuota int64 = -1

// PlanLimits is the structured quota object stored on a plan.
type PlanLimits struct {
	MaxClients            int64 `json:"max_clients" mapstructure:"max_clients"`
	MaxDocuments          int64 `json:"max_documents" mapstructure:"max_documents"`
	MaxRecurringTemplates int64 `json:"max_recurring_templates" mapstructure:"max_recurring_templates"`
}

// LimitFor returns the quota for a resource type. Resources the plan does
// not meter report as unlimited.
func (l PlanLimits) LimitFor(resource ResourceType) int64 {
	switch resource {
	case ResourceTypeClients:
		return l.MaxClients
	case ResourceTypeDocuments:
		return l.MaxDocuments
	case ResourceTypeRecurringTemplates:
		return l.MaxRecurringTemplates
	default:
		return UnlimitedQuota
	}
}
