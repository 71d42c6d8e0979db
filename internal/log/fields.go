package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldError        = "error"
	FieldBudgetID     = "budget_id"
	FieldBudgetName   = "budget_name"
	FieldRuleID       = "rule_id"
	FieldAccount      = "account"
	FieldCurrency     = "currency"
	FieldAmountCents  = "amount_cents"
	FieldDateFrom     = "from"
	FieldDateTo       = "to"
	FieldPeriods      = "periods"
	FieldSheetsRef    = "sheets_ref"
	FieldMessageCount = "message_count"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentBudget   = "budget"
	ComponentForecast = "forecast"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentExport   = "export"
	ComponentCache    = "cache"
)
