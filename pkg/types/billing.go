package types

// TemplateKind separates the two recurring domains: client payments managed
// by an accountant, and the accountant's own financial entries.
type TemplateKind string

const (
	TemplateKindClientPayment  TemplateKind = "client_payment"
	TemplateKindFinancialEntry TemplateKind = "financial_entry"
)

func (k TemplateKind) IsValid() bool {
	return k == TemplateKindClientPayment || k == TemplateKindFinancialEntry
}

// ChargeStatus tracks the lifecycle of a generated charge. The generator
// only ever creates pending charges; later transitions come from payment
// updates and the overdue sweep.
type ChargeStatus string

const (
	ChargeStatusPending  ChargeStatus = "pending"
	ChargeStatusPaid     ChargeStatus = "paid"
	ChargeStatusOverdue  ChargeStatus = "overdue"
	ChargeStatusCanceled ChargeStatus = "canceled"
)

// InvoiceStatus mirrors the provider invoice state we care about.
type InvoiceStatus string

const (
	InvoiceStatusOpen          InvoiceStatus = "open"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusUncollectible InvoiceStatus = "uncollectible"
)

// ResourceType identifies a quota-limited resource.
type ResourceType string

const (
	ResourceTypeClients            ResourceType = "clients"
	ResourceTypeDocuments          ResourceType = "documents"
	ResourceTypeRecurringTemplates ResourceType = "recurring_templates"
)
