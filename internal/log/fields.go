package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldIdentifier = "identifier"
	FieldOwner      = "owner"
	FieldDate       = "date"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldRecords    = "records"
	FieldBackend    = "backend"
	FieldWindowDays = "window_days"
	FieldEventID    = "event_id"
	FieldDuration   = "duration_ms"
)

// Components
const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentDirectory = "directory"
	ComponentLedger    = "ledger"
	ComponentCache     = "cache"
	ComponentAMQP      = "amqp"
	ComponentBackend   = "backend"
)

// Operations
const (
	OpRegister     = "register"
	OpAuthenticate = "authenticate"
	OpLoad         = "load"
	OpAppend       = "append"
	OpList         = "list"
	OpSummarize    = "summarize"
	OpPublish      = "publish"
	OpStartup      = "startup"
	OpShutdown     = "shutdown"
)

// Error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeConflict      = "conflict_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds the error message and its category.
func (f LogFields) WithError(err error, errorType string) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		if errorType != "" {
			f[FieldErrorType] = errorType
		}
	}
	return f
}

// WithRecord adds the fields describing one ledger record.
func (f LogFields) WithRecord(owner, date, category, amount string) LogFields {
	f[FieldOwner] = owner
	f[FieldDate] = date
	f[FieldCategory] = category
	f[FieldAmount] = amount
	return f
}

// With adds an arbitrary field.
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
