// Package client is the Go counterpart of the collaboration core for
// product front-ends and integration tests: a reconnecting dialer and the
// optimistic chat timeline it reconciles.
package client

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lectio/collab/internal/domain"
)

// ReconcileWindow bounds how far apart a local optimistic timestamp and the
// store-assigned one may be and still describe the same message.
const ReconcileWindow = 10 * time.Second

// Entry is one visible chat line. Pending entries carry a locally generated
// id and local timestamp until the canonical event replaces them.
type Entry struct {
	TempID  string
	Pending bool
	Message domain.ChatMessage
}

// Timeline reconciles optimistic temporary entries against canonical chat
// events. Applying the same canonical event twice yields the same visible
// log as applying it once.
type Timeline struct {
	mu      sync.Mutex
	entries []Entry
	applied map[string]struct{}
}

func NewTimeline() *Timeline {
	return &Timeline{applied: make(map[string]struct{})}
}

// AddPending renders an optimistic entry before the round trip completes
// and returns its temporary id.
func (t *Timeline) AddPending(authorID domain.UserID, authorName string, role domain.Role, body string) string {
	tempID := uuid.NewString()
	t.mu.Lock()
	t.entries = append(t.entries, Entry{
		TempID:  tempID,
		Pending: true,
		Message: domain.ChatMessage{
			ID:         tempID,
			AuthorID:   authorID,
			AuthorName: authorName,
			Role:       role,
			Body:       body,
			Timestamp:  time.Now().UTC(),
		},
	})
	t.mu.Unlock()
	return tempID
}

// ApplyCanonical merges a canonical event into the timeline, whether it
// arrived as the submit result or via broadcast. Dedup by canonical id runs
// first, then a matching pending entry (same author, same body, timestamps
// within the window) is replaced; with no match the event is appended as
// new. Idempotent.
func (t *Timeline) ApplyCanonical(msg domain.ChatMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, seen := t.applied[msg.ID]; seen {
		return
	}
	t.applied[msg.ID] = struct{}{}

	for i := range t.entries {
		e := &t.entries[i]
		if !e.Pending || e.Message.AuthorID != msg.AuthorID || e.Message.Body != msg.Body {
			continue
		}
		if absDuration(msg.Timestamp.Sub(e.Message.Timestamp)) >= ReconcileWindow {
			continue
		}
		e.Pending = false
		e.TempID = ""
		e.Message = msg
		t.sortLocked()
		return
	}

	t.entries = append(t.entries, Entry{Message: msg})
	t.sortLocked()
}

// Fail retracts an unconfirmed optimistic entry after an errored or
// timed-out submit; it must never stay rendered as if sent.
func (t *Timeline) Fail(tempID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].Pending && t.entries[i].TempID == tempID {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Messages returns the visible log sorted by timestamp, not arrival order:
// concurrent authors may be assigned timestamps in either order.
func (t *Timeline) Messages() []domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.ChatMessage, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Message
	}
	return out
}

func (t *Timeline) sortLocked() {
	sort.SliceStable(t.entries, func(i, j int) bool {
		return t.entries[i].Message.Timestamp.Before(t.entries[j].Message.Timestamp)
	})
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
