package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lectio/collab/internal/domain"
)

type messageRow struct {
	ID         string `gorm:"primaryKey"`
	RoomID     string `gorm:"index"`
	AuthorID   string
	AuthorName string
	Role       string
	Body       string
	CreatedAt  time.Time `gorm:"index"`
}

func (messageRow) TableName() string { return "chat_messages" }

func (r messageRow) toDomain() domain.ChatMessage {
	return domain.ChatMessage{
		ID:         r.ID,
		RoomID:     domain.RoomID(r.RoomID),
		AuthorID:   domain.UserID(r.AuthorID),
		AuthorName: r.AuthorName,
		Role:       domain.Role(r.Role),
		Body:       r.Body,
		Timestamp:  r.CreatedAt,
	}
}

// Gorm is the sqlite-backed chat log of record.
type Gorm struct {
	db *gorm.DB
}

func Open(path string) (*Gorm, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open chat db: %w", err)
	}
	if err := db.AutoMigrate(&messageRow{}); err != nil {
		return nil, fmt.Errorf("migrate chat db: %w", err)
	}
	log.Info().Str("module", "store.gorm").Str("path", path).Msg("chat store ready")
	return &Gorm{db: db}, nil
}

func (g *Gorm) Append(ctx context.Context, roomID domain.RoomID, authorID domain.UserID, authorName string, role domain.Role, body string) (domain.ChatMessage, error) {
	row := messageRow{
		ID:         uuid.NewString(),
		RoomID:     string(roomID),
		AuthorID:   string(authorID),
		AuthorName: authorName,
		Role:       string(role),
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.ChatMessage{}, fmt.Errorf("append chat message: %w", err)
	}
	return row.toDomain(), nil
}

func (g *Gorm) Recent(ctx context.Context, roomID domain.RoomID, limit int) ([]domain.ChatMessage, error) {
	var rows []messageRow
	q := g.db.WithContext(ctx).
		Where("room_id = ?", string(roomID)).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	// query is newest-first; callers want oldest-first
	out := make([]domain.ChatMessage, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r.toDomain()
	}
	return out, nil
}
