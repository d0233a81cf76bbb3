package log

import (
	"maps"
	"slices"
)

// Attribute keys shared by every component.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldBytes         = "bytes"
	FieldUserAgent     = "user_agent"
	FieldReferer       = "referer"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"

	FieldUserID    = "user_id"
	FieldDay       = "day"
	FieldEntryKind = "entry_kind"
	FieldEntryID   = "entry_id"
	FieldCategory  = "category"
	FieldScore     = "score"
	FieldTone      = "tone"
	FieldSheetsRef = "sheets_ref"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentEntry     = "entry"
	ComponentDashboard = "dashboard"
	ComponentAuth      = "auth"
	ComponentEngine    = "engine"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTemplate  = "template"
)

const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpSummarize = "summarize"
	OpSignUp    = "sign_up"
	OpSignIn    = "sign_in"
	OpRender    = "render"
)

const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
)

// LogFields collects attributes for one record.
//
//	slog.InfoContext(ctx, "Entry logged", NewFields().WithUser(id).ToSlice()...)
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError is a no-op for a nil err.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithUser(userID string) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithEntry sets the entry kind and id, and the category when there is one.
func (f LogFields) WithEntry(kind, id, category string) LogFields {
	f[FieldEntryKind] = kind
	f[FieldEntryID] = id
	if category != "" {
		f[FieldCategory] = category
	}
	return f
}

func (f LogFields) WithScore(day string, score int, tone string) LogFields {
	f[FieldDay] = day
	f[FieldScore] = score
	f[FieldTone] = tone
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	f[FieldUserAgent] = userAgent
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice flattens the fields into slog key/value arguments, sorted by key
// so records read the same way every time.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for _, k := range slices.Sorted(maps.Keys(f)) {
		out = append(out, k, f[k])
	}
	return out
}
