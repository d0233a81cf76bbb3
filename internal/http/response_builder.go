package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Event is a client-side event carried in the HX-Trigger header. The
// templates and app.js listen for these on document.body.
type Event string

const (
	EventEntryLogged    Event = "entry:logged"
	EventSummaryRefresh Event = "summary:refresh"
	EventGoalsUpdated   Event = "goals:updated"
	EventFormReset      Event = "form:reset"
	EventNotification   Event = "show-notification"
)

// NotificationType selects the style of a toast.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Errors stay on screen longer than confirmations.
const (
	notificationDuration      = 3000
	errorNotificationDuration = 5000
)

type notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int              `json:"duration"`
}

// HTMXResponseBuilder assembles a partial response: status, headers, the
// HX-Trigger event set and an HTML body.
type HTMXResponseBuilder struct {
	status int
	header http.Header
	events map[Event]any
	body   []byte
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status: http.StatusOK,
		header: make(http.Header),
		events: make(map[Event]any),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger adds an event. A later call with the same event replaces its data.
func (b *HTMXResponseBuilder) Trigger(ev Event, data any) *HTMXResponseBuilder {
	if data == nil {
		data = struct{}{}
	}
	b.events[ev] = data
	return b
}

// TriggerEntryLogged refreshes the activity list and the weekly table.
func (b *HTMXResponseBuilder) TriggerEntryLogged(kind, day string) *HTMXResponseBuilder {
	return b.Trigger(EventEntryLogged, map[string]string{"kind": kind, "day": day})
}

// TriggerSummaryRefresh reloads the summary card of day.
func (b *HTMXResponseBuilder) TriggerSummaryRefresh(day string) *HTMXResponseBuilder {
	return b.Trigger(EventSummaryRefresh, map[string]string{"day": day})
}

func (b *HTMXResponseBuilder) TriggerGoalsUpdated() *HTMXResponseBuilder {
	return b.Trigger(EventGoalsUpdated, nil)
}

// TriggerFormReset clears the form with the given element id. An empty id
// leaves the choice to the form that issued the request.
func (b *HTMXResponseBuilder) TriggerFormReset(formID string) *HTMXResponseBuilder {
	if formID == "" {
		return b.Trigger(EventFormReset, nil)
	}
	return b.Trigger(EventFormReset, map[string]string{"form": formID})
}

// TriggerNotification shows a toast. Only one toast fits per response.
func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string) *HTMXResponseBuilder {
	d := notificationDuration
	if kind == NotificationError {
		d = errorNotificationDuration
	}
	return b.Trigger(EventNotification, notification{Type: kind, Message: message, Duration: d})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

// Redirect makes HTMX load url as a full page.
func (b *HTMXResponseBuilder) Redirect(url string) *HTMXResponseBuilder {
	return b.Header("HX-Redirect", url)
}

func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	return b.Body([]byte(content))
}

func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	return b.BodyString(html)
}

// Write sends the response. Headers already on w are kept unless the
// builder sets the same name.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	dst := w.Header()
	for name, values := range b.header {
		dst[name] = values
	}
	if len(b.events) > 0 {
		if raw, err := json.Marshal(b.events); err == nil {
			dst.Set("HX-Trigger", string(raw))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse renders message, escaped, in the error box the result
// slots of the forms expect.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

// SuccessResponse is the confirmation counterpart of ErrorResponse.
func SuccessResponse(message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(message) + `</div>`).
		TriggerSuccessNotification(message)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// MethodNotAllowedError answers 405 with the Allow header and no body.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}
