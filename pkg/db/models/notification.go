package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
)

// Notification stores a delivered in-app notification for one user.
type Notification struct {
	ID        uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;index;uniqueIndex:uq_notifications_event_user,priority:2"`
	EventID   uuid.UUID                  `gorm:"column:event_id;type:uuid;not null;uniqueIndex:uq_notifications_event_user,priority:1"`
	Type      enums.NotificationType     `gorm:"column:type;type:text;not null"`
	Priority  enums.NotificationPriority `gorm:"column:priority;type:text;not null"`
	Title     string                     `gorm:"column:title;type:text;not null"`
	Message   string                     `gorm:"column:message;type:text;not null"`
	Data      json.RawMessage            `gorm:"column:data;type:jsonb"`
	ReadAt    *time.Time                 `gorm:"column:read_at"`
	CreatedAt time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

// NotificationPreference lets a user switch a notification type off.
type NotificationPreference struct {
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;primaryKey"`
	Type      enums.NotificationType `gorm:"column:type;type:text;primaryKey"`
	Enabled   bool                   `gorm:"column:enabled;not null"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
