package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type is the severity shown in the client's inbox.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// IsValid returns true if the type is recognized.
func (t Type) IsValid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// Notification is an inbox entry for one user.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// New builds an unread notification. Unknown types fall back to info.
func New(userID uuid.UUID, title, message string, typ Type) *Notification {
	if !typ.IsValid() {
		typ = TypeInfo
	}
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
}

// Repository is the inbox store. Mutations are scoped to the owner so a
// user cannot touch another user's inbox.
type Repository interface {
	Save(ctx context.Context, n *Notification) error
	ListUnread(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
