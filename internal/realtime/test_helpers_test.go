package realtime

import (
	"context"
	"sync"
	"testing"
)

// fakeConn records every event it receives.
type fakeConn struct {
	mu     sync.Mutex
	events []Event
	full   bool
}

func (c *fakeConn) Send(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.events = append(c.events, ev)
	return true
}

func (c *fakeConn) eventsOf(kind EventKind) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Event
	for _, ev := range c.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// recordingAppender signals on a channel once the async append lands.
type recordingAppender struct {
	appended chan MessagePayload
	err      error
}

func newRecordingAppender(err error) *recordingAppender {
	return &recordingAppender{appended: make(chan MessagePayload, 1), err: err}
}

func (a *recordingAppender) AppendMessage(_ context.Context, m MessagePayload) error {
	a.appended <- m
	return a.err
}

func containsUser(t *testing.T, users []string, id string) bool {
	t.Helper()
	for _, u := range users {
		if u == id {
			return true
		}
	}
	return false
}
