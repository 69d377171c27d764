package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldWorkspaceID   = "workspace_id"
	FieldTransactionID = "transaction_id"
	FieldAccountID     = "account_id"
	FieldMemberID      = "member_id"
	FieldAmountCents   = "amount_cents"
	FieldInstallments  = "installments"
	FieldEventKind     = "event_kind"
	FieldEventVerb     = "event_verb"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
	ComponentBackend = "backend"
)
