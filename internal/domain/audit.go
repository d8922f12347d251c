package domain

import (
	"time"
)

type AuditLog struct {
	ID          int64                  `json:"id"`
	EventTime   time.Time              `json:"event_time"`
	ActorUserID *int64                 `json:"actor_user_id,omitempty"`
	ChatID      *int64                 `json:"chat_id,omitempty"`
	EventType   string                 `json:"event_type"`
	Payload     map[string]interface{} `json:"payload"`
}

const (
	EventTypeChatCreated   = "CHAT_CREATED"
	EventTypeChatDeleted   = "CHAT_DELETED"
	EventTypeMemberAdded   = "MEMBER_ADDED"
	EventTypeMemberRemoved = "MEMBER_REMOVED"
	EventTypeUserRenamed   = "USER_RENAMED"
)
