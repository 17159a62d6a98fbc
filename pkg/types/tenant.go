package types

// TenantStatus is the accountant-level billing summary, derived from the
// provider subscription status by TenantStatusFromProvider.
type TenantStatus string

const (
	TenantStatusTrialing TenantStatus = "trialing"
	TenantStatusActive   TenantStatus = "active"
	TenantStatusPastDue  TenantStatus = "past_due"
	TenantStatusCanceled TenantStatus = "canceled"
)

// TenantStatusFromProvider maps a Stripe subscription status to the local
// tenant summary status. Unknown provider statuses map to active so that a
// new provider-side state never locks a paying tenant out.
func TenantStatusFromProvider(providerStatus string) TenantStatus {
	switch providerStatus {
	case "trialing":
		return TenantStatusTrialing
	case "active":
		return TenantStatusActive
	case "past_due":
		return TenantStatusPastDue
	case "canceled", "unpaid":
		return TenantStatusCanceled
	default:
		return TenantStatusActive
	}
}

// Billable reports whether the tenant may keep using paid features.
func (s TenantStatus) Billable() bool {
	return s == TenantStatusTrialing || s == TenantStatusActive
}
