package session

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platewatch/internal/domain/plate"
)

type staticWatchlist map[string]bool

func (w staticWatchlist) Contains(token string) bool {
	return w[token]
}

type recordingNotifier struct {
	mu      sync.Mutex
	entries []plate.SessionLogEntry
	alerts  []plate.Alert
	err     error
}

func (n *recordingNotifier) EntryLogged(e plate.SessionLogEntry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, e)
	return n.err
}

func (n *recordingNotifier) AlertRaised(a plate.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return n.err
}

func (n *recordingNotifier) alertCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

func newTestEvaluator(watchlist Watchlist, notifier Notifier, alertDuration time.Duration) *Evaluator {
	return NewEvaluator(watchlist, notifier, 10, alertDuration, zerolog.Nop())
}

func TestEvaluateLogsEveryDetectionNewestFirst(t *testing.T) {
	e := newTestEvaluator(staticWatchlist{}, &recordingNotifier{}, time.Minute)

	e.Evaluate([]string{"aa-11", "bb-22"})

	log := e.Log()
	require.Len(t, log, 2)
	assert.Equal(t, "BB22", log[0].Number)
	assert.Equal(t, "AA11", log[1].Number)
	assert.False(t, log[0].Match)
}

func TestSessionLogCappedAtTen(t *testing.T) {
	e := newTestEvaluator(staticWatchlist{}, &recordingNotifier{}, time.Minute)

	for i := 0; i < 15; i++ {
		e.Evaluate([]string{fmt.Sprintf("PL%04d", i)})
	}

	log := e.Log()
	require.Len(t, log, 10)
	assert.Equal(t, "PL0014", log[0].Number)
	assert.Equal(t, "PL0005", log[9].Number)
}

func TestLogEntryTimeFormat(t *testing.T) {
	e := newTestEvaluator(staticWatchlist{}, &recordingNotifier{}, time.Minute)
	e.now = func() time.Time {
		return time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)
	}

	e.Evaluate([]string{"AB123AA"})

	log := e.Log()
	require.Len(t, log, 1)
	assert.Equal(t, "09:05:07", log[0].Time)
	assert.Regexp(t, regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`), log[0].Time)
}

func TestMatchRaisesAlert(t *testing.T) {
	notifier := &recordingNotifier{}
	e := newTestEvaluator(staticWatchlist{"AB123AA": true}, notifier, time.Minute)

	e.Evaluate([]string{"ab-123-aa"})

	a := e.Alert()
	require.NotNil(t, a)
	assert.Equal(t, "AB123AA", a.Number)
	assert.Equal(t, 1, notifier.alertCount())

	log := e.Log()
	require.Len(t, log, 1)
	assert.True(t, log[0].Match)
}

func TestNonMatchDoesNotClearAlert(t *testing.T) {
	e := newTestEvaluator(staticWatchlist{"AB123AA": true}, &recordingNotifier{}, time.Minute)

	e.Evaluate([]string{"AB123AA"})
	e.Evaluate([]string{"ZZ999XX"})

	a := e.Alert()
	require.NotNil(t, a)
	assert.Equal(t, "AB123AA", a.Number)
}

func TestAlertClearsAfterDuration(t *testing.T) {
	e := newTestEvaluator(staticWatchlist{"AB123AA": true}, &recordingNotifier{}, 30*time.Millisecond)

	e.Evaluate([]string{"AB123AA"})
	require.NotNil(t, e.Alert())

	assert.Eventually(t, func() bool {
		return e.Alert() == nil
	}, time.Second, 5*time.Millisecond)
}

func TestNewerMatchSupersedesScheduledClear(t *testing.T) {
	watchlist := staticWatchlist{"AB123AA": true, "CD456BB": true}
	e := newTestEvaluator(watchlist, &recordingNotifier{}, 60*time.Millisecond)

	e.Evaluate([]string{"AB123AA"})
	time.Sleep(40 * time.Millisecond)

	// Second match before the first clear fires: the window restarts for
	// the newer token.
	e.Evaluate([]string{"CD456BB"})
	time.Sleep(40 * time.Millisecond)

	a := e.Alert()
	require.NotNil(t, a, "first alert's clear must not clear the newer alert")
	assert.Equal(t, "CD456BB", a.Number)

	assert.Eventually(t, func() bool {
		return e.Alert() == nil
	}, time.Second, 5*time.Millisecond)
}

func TestNotifierFailuresAreSwallowed(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("speaker broken")}
	e := newTestEvaluator(staticWatchlist{"AB123AA": true}, notifier, time.Minute)

	e.Evaluate([]string{"AB123AA"})

	require.NotNil(t, e.Alert())
	require.Len(t, e.Log(), 1)
}

func TestResetDropsSessionState(t *testing.T) {
	e := newTestEvaluator(staticWatchlist{"AB123AA": true}, &recordingNotifier{}, time.Minute)

	e.Evaluate([]string{"AB123AA", "ZZ999XX"})
	require.NotEmpty(t, e.Log())
	require.NotNil(t, e.Alert())

	e.Reset()

	assert.Empty(t, e.Log())
	assert.Nil(t, e.Alert())
}
