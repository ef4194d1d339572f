package audit

import (
	"context"
	"strings"
	"time"
)

// Event is one login audit record.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	AttemptID string            `json:"attempt_id,omitempty"`
	Username  string            `json:"username,omitempty"`
	Chain     string            `json:"chain,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events. Emit is called from a single delivery
// goroutine per dispatcher.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// secretMarkers are substrings of metadata keys that may name a submitted
// factor. Matching keys never leave the dispatcher.
var secretMarkers = []string{"password", "secret", "token", "passcode", "otp"}

func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	for _, m := range secretMarkers {
		if strings.Contains(k, m) {
			return true
		}
	}
	return false
}

// prepare stamps a missing timestamp and returns a copy of ev whose metadata
// holds no secret-looking keys. The caller's map is not modified.
func prepare(ev Event, now func() time.Time) Event {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = now().UTC()
	}
	if len(ev.Metadata) == 0 {
		ev.Metadata = nil
		return ev
	}
	clean := make(map[string]string, len(ev.Metadata))
	for k, v := range ev.Metadata {
		if isSecretKey(k) {
			continue
		}
		clean[k] = v
	}
	if len(clean) == 0 {
		clean = nil
	}
	ev.Metadata = clean
	return ev
}
