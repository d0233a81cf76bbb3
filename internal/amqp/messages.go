package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

var entryKinds = map[string]bool{"meal": true, "workout": true, "water": true}

// EntryLoggedMessage announces that a user logged an entry for a day.
// It carries only identifiers; consumers reload the day from the database.
type EntryLoggedMessage struct {
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	EntryID   string    `json:"entry_id"`
	Day       string    `json:"day"` // YYYY-MM-DD in the user's timezone
	Timestamp time.Time `json:"timestamp"`
}

// NewEntryLoggedMessage creates a message stamped with the current time.
func NewEntryLoggedMessage(userID, kind, entryID, day string) *EntryLoggedMessage {
	return &EntryLoggedMessage{
		UserID:    userID,
		Kind:      kind,
		EntryID:   entryID,
		Day:       day,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntryLoggedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate checks the fields consumers rely on. Kind may be empty for
// messages that only ask for a day to be re-exported.
func (m *EntryLoggedMessage) Validate() error {
	if m.UserID == "" || m.Day == "" {
		return errors.New("message missing user_id or day")
	}
	if _, err := time.Parse(dayLayout, m.Day); err != nil {
		return fmt.Errorf("message day %q is not YYYY-MM-DD", m.Day)
	}
	if m.Kind != "" && !entryKinds[m.Kind] {
		return fmt.Errorf("unknown entry kind %q", m.Kind)
	}
	return nil
}

// EntryLoggedMessageFromJSON decodes a message and validates it.
func EntryLoggedMessageFromJSON(data []byte) (*EntryLoggedMessage, error) {
	var msg EntryLoggedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
