package domain

import (
	"time"

	"github.com/google/uuid"
)

// Collection names under which records are persisted.
const (
	CollectionUsers          = "users"
	CollectionPhrases        = "phrases"
	CollectionGroups         = "groups"
	CollectionMessages       = "messages"
	CollectionDirectMessages = "direct_messages"
	CollectionAlerts         = "emergency_alerts"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// Phrase is a reusable utterance owned by a user. Phrase CRUD lives outside
// the core; the record shape is kept so the store and tooling can see it.
type Phrase struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type Group struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Language   string   `json:"language"`
	Members    []string `json:"members"`
	Moderators []string `json:"moderators"`
	CreatorID  string   `json:"creator_id"`
	Public     bool     `json:"public"`

	// Derived on read from the authoritative members set and messages
	// collection, never mutated independently.
	MemberCount  int `json:"member_count"`
	MessageCount int `json:"message_count"`

	CreatedAt time.Time `json:"created_at"`
}

// IsMember reports whether userID belongs to the group's member set.
func (g Group) IsMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

type GroupMessage struct {
	ID        string         `json:"id"`
	GroupID   string         `json:"group_id"`
	AuthorID  string         `json:"author_id"`
	Content   string         `json:"content"`
	Language  string         `json:"language,omitempty"`
	Reactions map[string]int `json:"reactions,omitempty"`
	Edited    bool           `json:"edited"`
	CreatedAt time.Time      `json:"created_at"`
}

type DirectMessage struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

type AlertStatus string

const (
	AlertActive    AlertStatus = "active"
	AlertResolved  AlertStatus = "resolved"
	AlertCancelled AlertStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s AlertStatus) Terminal() bool {
	return s == AlertResolved || s == AlertCancelled
}

type EmergencyAlert struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Status      AlertStatus `json:"status"`
	Message     string      `json:"message"`
	Location    string      `json:"location,omitempty"`
	Severity    string      `json:"severity,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ResolvedAt  *time.Time  `json:"resolved_at,omitempty"`
	CancelledAt *time.Time  `json:"cancelled_at,omitempty"`
}

// NewID produces a record identifier.
func NewID() string {
	return uuid.NewString()
}

// GroupTopic is the broadcast topic carrying a group's realtime events.
func GroupTopic(groupID string) string {
	return "group:" + groupID
}
