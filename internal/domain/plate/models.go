package plate

import (
	"time"
)

// WatchedPlate is one watchlist entry. Number is always a canonical token.
// Entries are immutable once created.
type WatchedPlate struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionLogEntry records a single detection evaluated during a capture
// session. Ephemeral, never persisted.
type SessionLogEntry struct {
	Number string `json:"number"`
	Time   string `json:"time"` // wall clock, 24-hour HH:MM:SS
	Match  bool   `json:"match"`
}

// Alert is the transient "most recent match" state.
type Alert struct {
	Number   string    `json:"number"`
	RaisedAt time.Time `json:"raised_at"`
}
