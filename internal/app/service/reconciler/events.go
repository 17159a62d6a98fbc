package reconciler

// EventKind is the closed set of provider event types this service reacts
// to. Anything else is acknowledged and logged, never an error.
type EventKind string

const (
	EventCheckoutCompleted     EventKind = "checkout.session.completed"
	EventSubscriptionCreated   EventKind = "customer.subscription.created"
	EventSubscriptionUpdated   EventKind = "customer.subscription.updated"
	EventSubscriptionDeleted   EventKind = "customer.subscription.deleted"
	EventInvoicePaid           EventKind = "invoice.paid"
	EventInvoicePaymentFailed  EventKind = "invoice.payment_failed"
	EventCustomerUpdated       EventKind = "customer.updated"
	EventPaymentMethodAttached EventKind = "payment_method.attached"
)

// KindOf resolves a raw provider event type against the handled set.
func KindOf(eventType string) (EventKind, bool) {
	switch k := EventKind(eventType); k {
	case EventCheckoutCompleted,
		EventSubscriptionCreated,
		EventSubscriptionUpdated,
		EventSubscriptionDeleted,
		EventInvoicePaid,
		EventInvoicePaymentFailed,
		EventCustomerUpdated,
		EventPaymentMethodAttached:
		return k, true
	default:
		return "", false
	}
}
