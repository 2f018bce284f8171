// Package session owns the per-capture-session state: the bounded
// detection log and the transient alert raised when a detected plate is on
// the watchlist.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"platewatch/internal/domain/plate"
)

// Watchlist is the read side of the watchlist the evaluator matches against.
type Watchlist interface {
	Contains(token string) bool
}

// Notifier receives evaluator events. Notification failures are swallowed;
// a dead notifier never affects matching.
type Notifier interface {
	EntryLogged(e plate.SessionLogEntry) error
	AlertRaised(a plate.Alert) error
}

// Evaluator applies each raw detection against the watchlist, keeps the
// bounded session log (newest first), and manages the alert lifetime.
type Evaluator struct {
	watchlist     Watchlist
	notifier      Notifier
	log           zerolog.Logger
	logCapacity   int
	alertDuration time.Duration

	mu         sync.Mutex
	entries    []plate.SessionLogEntry
	alert      *plate.Alert
	alertSeq   uint64
	clearTimer *time.Timer

	now func() time.Time
}

func NewEvaluator(watchlist Watchlist, notifier Notifier, logCapacity int, alertDuration time.Duration, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		watchlist:     watchlist,
		notifier:      notifier,
		log:           log,
		logCapacity:   logCapacity,
		alertDuration: alertDuration,
		now:           time.Now,
	}
}

// Evaluate processes one batch of raw detections in the order received.
func (e *Evaluator) Evaluate(rawPlates []string) {
	for _, raw := range rawPlates {
		e.evaluateOne(raw)
	}
}

func (e *Evaluator) evaluateOne(raw string) {
	token := plate.Normalize(raw)
	matched := e.watchlist.Contains(token)

	entry := plate.SessionLogEntry{
		Number: token,
		Time:   e.now().Format("15:04:05"),
		Match:  matched,
	}

	e.mu.Lock()
	e.entries = append([]plate.SessionLogEntry{entry}, e.entries...)
	if len(e.entries) > e.logCapacity {
		e.entries = e.entries[:e.logCapacity]
	}
	e.mu.Unlock()

	if err := e.notifier.EntryLogged(entry); err != nil {
		e.log.Debug().Err(err).Msg("log notification failed")
	}

	if matched {
		e.raise(token)
	}
}

// raise records the match as the current alert and schedules its clear.
// A newer match supersedes the pending clear: the clear only fires for the
// alert it was scheduled against.
func (e *Evaluator) raise(token string) {
	alert := plate.Alert{
		Number:   token,
		RaisedAt: e.now(),
	}

	e.mu.Lock()
	e.alert = &alert
	e.alertSeq++
	seq := e.alertSeq
	if e.clearTimer != nil {
		e.clearTimer.Stop()
	}
	e.clearTimer = time.AfterFunc(e.alertDuration, func() {
		e.clear(seq)
	})
	e.mu.Unlock()

	e.log.Info().Str("plate", token).Msg("watchlist match")

	if err := e.notifier.AlertRaised(alert); err != nil {
		e.log.Debug().Err(err).Msg("alert notification failed")
	}
}

func (e *Evaluator) clear(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.alertSeq == seq {
		e.alert = nil
	}
}

// Alert returns the current alert, or nil when none is active.
func (e *Evaluator) Alert() *plate.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.alert == nil {
		return nil
	}
	a := *e.alert
	return &a
}

// Log returns the session log, newest entry first.
func (e *Evaluator) Log() []plate.SessionLogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]plate.SessionLogEntry, len(e.entries))
	copy(out, e.entries)
	return out
}

// Reset drops the session log and any active alert. Called when a new
// capture session starts.
func (e *Evaluator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = nil
	e.alert = nil
	e.alertSeq++
	if e.clearTimer != nil {
		e.clearTimer.Stop()
		e.clearTimer = nil
	}
}
