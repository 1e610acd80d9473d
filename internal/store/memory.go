package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lectio/collab/internal/domain"
)

// Memory is an in-process append log for tests and dev mode.
type Memory struct {
	mu   sync.Mutex
	logs map[domain.RoomID][]domain.ChatMessage
}

func NewMemory() *Memory {
	return &Memory{logs: make(map[domain.RoomID][]domain.ChatMessage)}
}

func (m *Memory) Append(ctx context.Context, roomID domain.RoomID, authorID domain.UserID, authorName string, role domain.Role, body string) (domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ChatMessage{}, err
	}
	msg := domain.ChatMessage{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Role:       role,
		Body:       body,
		Timestamp:  time.Now().UTC(),
	}
	m.mu.Lock()
	m.logs[roomID] = append(m.logs[roomID], msg)
	m.mu.Unlock()
	return msg, nil
}

func (m *Memory) Recent(ctx context.Context, roomID domain.RoomID, limit int) ([]domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	log := m.logs[roomID]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]domain.ChatMessage, len(log))
	copy(out, log)
	return out, nil
}
