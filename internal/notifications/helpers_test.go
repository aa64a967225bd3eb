package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func formatClock(h, m, s int) string {
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

func testConfig(roles ...string) Config {
	if len(roles) == 0 {
		roles = []string{"officer", "spotter"}
	}
	return NewConfig(2*time.Minute, roles, 90, 10, "Squad leaders, the game starts soon")
}

var errSendRefused = errors.New("connection refused")

// fakeBackend scripts clock readings and records sends. Safe for the
// concurrent Send calls of a fanout.
type fakeBackend struct {
	mu sync.Mutex

	clocks     []string // "" = absent; the last entry repeats
	clockCalls int

	roster    []Player
	rosterErr error

	failIDs map[string]bool
	sent    []string

	// When set, Send reports the player id here and blocks until ctx ends.
	blockSends chan string

	closes   int
	closeErr error
}

func (f *fakeBackend) CurrentClock(context.Context) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clockCalls++
	if len(f.clocks) == 0 {
		return "", false
	}
	raw := f.clocks[0]
	if len(f.clocks) > 1 {
		f.clocks = f.clocks[1:]
	}
	return raw, raw != ""
}

func (f *fakeBackend) CurrentRoster(context.Context) ([]Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	return append([]Player(nil), f.roster...), nil
}

func (f *fakeBackend) Send(ctx context.Context, playerID, _, _ string) error {
	if f.blockSends != nil {
		f.blockSends <- playerID
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[playerID] {
		return errSendRefused
	}
	f.sent = append(f.sent, playerID)
	return nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return f.closeErr
}

func (f *fakeBackend) sentIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeBackend) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *fakeBackend) clockCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clockCalls
}

func scenarioRoster() []Player {
	return []Player{
		{ID: "76561198000000001", Name: "Able", Role: "officer"},
		{ID: "76561198000000002", Name: "Baker", Role: "rifleman"},
		{ID: "76561198000000003", Name: "Charlie", Role: "spotter"},
	}
}

type phraseTable map[string]string

func (p phraseTable) String(key, fallback string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return fallback
}

// syncBuffer lets a test read logs written by the scheduler goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
