package domain

import (
	"time"
)

type Chat struct {
	ID        int64     `json:"cid"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_on"`
}

// Member - участник чата (явная запись в chat_members или владелец)
type Member struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
}

type Owner struct {
	UserID    int64   `json:"uid"`
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone_number,omitempty"`
}

type Message struct {
	ID        int64     `json:"mid"`
	ChatID    int64     `json:"cid"`
	AuthorID  int64     `json:"uid"`
	Text      string    `json:"message"`
	ImageRef  *string   `json:"image,omitempty"`
	ParentID  *int64    `json:"replied_to,omitempty"`
	CreatedAt time.Time `json:"created_on"`
}

// MessageView - сообщение чата с голосами, ответами и автором
type MessageView struct {
	MessageID      int64     `json:"mid"`
	AuthorID       int64     `json:"uid"`
	ChatID         int64     `json:"cid"`
	Text           string    `json:"message"`
	ImageRef       *string   `json:"image"`
	LikeCount      int64     `json:"likes"`
	DislikeCount   int64     `json:"dislikes"`
	AuthorUsername string    `json:"username"`
	ReplyRefs      []int64   `json:"replies"`
	CreatedAt      time.Time `json:"created_on"`
}

type Vote struct {
	MessageID int64     `json:"mid"`
	UserID    int64     `json:"uid"`
	Upvote    bool      `json:"upvote"`
	CreatedAt time.Time `json:"created_on"`
}

// Image - загружаемое вложение сообщения
type Image struct {
	Filename string
	Data     []byte
}

// FeedEvent публикуется в канал чата после каждой записи
type FeedEvent struct {
	Type      string    `json:"type"`
	ChatID    int64     `json:"cid"`
	Message   *Message  `json:"message,omitempty"`
	Vote      *Vote     `json:"vote,omitempty"`
	UserID    int64     `json:"uid,omitempty"`
	CreatedAt time.Time `json:"created_on"`
}

const (
	FeedEventMessage = "message"
	FeedEventReply   = "reply"
	FeedEventVote    = "vote"
	// участник UserID исключен из чата
	FeedEventMemberRemoved = "member_removed"
	FeedEventChatDeleted   = "chat_deleted"
)

// Revokes сообщает, что после события пользователь больше не может читать ленту
func (e *FeedEvent) Revokes(userID int64) bool {
	switch e.Type {
	case FeedEventChatDeleted:
		return true
	case FeedEventMemberRemoved:
		return e.UserID == userID
	}
	return false
}
