package domain

import (
	"errors"
	"time"
)

const MaxChatBodyLen = 2000

var (
	ErrChatBodyEmpty   = errors.New("chat body empty")
	ErrChatBodyTooLong = errors.New("chat body too long")
)

// ChatMessage is the canonical, store-assigned form of a chat event.
// ID and Timestamp are assigned at persistence time; immutable after that.
type ChatMessage struct {
	ID         string    `json:"id"`
	RoomID     RoomID    `json:"roomId"`
	AuthorID   UserID    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Role       Role      `json:"role"`
	Body       string    `json:"body"`
	Timestamp  time.Time `json:"timestamp"`
}

func ValidateChatBody(body string) error {
	if len(body) == 0 {
		return ErrChatBodyEmpty
	}
	if len(body) > MaxChatBodyLen {
		return ErrChatBodyTooLong
	}
	return nil
}
