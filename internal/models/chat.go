package models

import (
	"time"

	"github.com/google/uuid"
)

// Thread is a conversation between two users. The pair is stored in canonical
// order (UserAID < UserBID) so creation is idempotent per pair.
type Thread struct {
	ID        int64     `json:"id"`
	UserAID   int64     `json:"user_a_id"`
	UserBID   int64     `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t Thread) HasParticipant(userID int64) bool {
	return t.UserAID == userID || t.UserBID == userID
}

func (t Thread) CounterpartOf(userID int64) int64 {
	if t.UserAID == userID {
		return t.UserBID
	}
	return t.UserAID
}

// ThreadState holds one participant's view flags for a thread. Threads are
// never deleted; archiving is the terminal state.
type ThreadState struct {
	ThreadID int64 `json:"thread_id"`
	UserID   int64 `json:"user_id"`
	Pinned   bool  `json:"pinned"`
	Archived bool  `json:"archived"`
	Muted    bool  `json:"muted"`
}

type Message struct {
	ID        int64      `json:"id"`
	ThreadID  int64      `json:"thread_id"`
	SenderID  int64      `json:"sender_id"`
	Content   string     `json:"content"`
	IsRead    bool       `json:"is_read"`
	ClientKey *uuid.UUID `json:"client_key,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ThreadSummary is one row of a participant's thread list: the thread, the
// counterpart's display data, the last message preview, and the viewer's
// unread count and state flags.
type ThreadSummary struct {
	Thread
	Counterpart       RoleInfo `json:"counterpart_role"`
	CounterpartID     int64    `json:"counterpart_id"`
	CounterpartName   string   `json:"counterpart_name"`
	CounterpartAvatar string   `json:"counterpart_avatar,omitempty"`
	LastMessage       *Message `json:"last_message,omitempty"`
	UnreadCount       int      `json:"unread_count"`
	Pinned            bool     `json:"pinned"`
	Archived          bool     `json:"archived"`
	Muted             bool     `json:"muted"`
}

func (s ThreadSummary) LastMessageAt() time.Time {
	if s.LastMessage != nil {
		return s.LastMessage.CreatedAt
	}
	return s.UpdatedAt
}

// ChatUsage mirrors the monthly conversation quota for free-plan instructors.
// Remaining is clamped at zero; when HasActivePlan is true the quota is
// reported but never enforced.
type ChatUsage struct {
	HasActivePlan     bool      `json:"has_active_plan"`
	UsedConversations int       `json:"used_conversations"`
	Limit             int       `json:"limit"`
	Remaining         int       `json:"remaining"`
	RenewsAt          time.Time `json:"renews_at"`
	IsNearLimit       bool      `json:"is_near_limit"`
}
