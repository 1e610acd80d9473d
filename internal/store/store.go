// Package store holds the durable chat log behind an interface the core
// treats as the single source of truth for chat ordering and identity.
package store

import (
	"context"

	"github.com/lectio/collab/internal/domain"
)

type Store interface {
	// Append persists one message and returns its canonical form with a
	// store-assigned id and timestamp.
	Append(ctx context.Context, roomID domain.RoomID, authorID domain.UserID, authorName string, role domain.Role, body string) (domain.ChatMessage, error)
	// Recent returns up to limit latest messages for the room, oldest first.
	Recent(ctx context.Context, roomID domain.RoomID, limit int) ([]domain.ChatMessage, error)
}
