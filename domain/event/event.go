package event

import (
	"time"

	"talkboard/domain"
)

// Inbound realtime event names. These are the wire contract clients depend on.
const (
	AnnouncePresence = "announce-presence"
	JoinGroup        = "join-group"
	LeaveGroup       = "leave-group"
	Typing           = "typing"
	StopTyping       = "stop-typing"
	SendGroupMessage = "send-group-message"
	EmergencyAlert   = "emergency-alert"
	DirectMessage    = "direct-message"
)

// Outbound realtime event names.
const (
	Connected        = "connected"
	NewMessage       = "new-message"
	UserTyping       = "user-typing"
	UserStatus       = "user-status"
	EmergencyBcast   = "emergency-broadcast"
	NewDirectMessage = "new-direct-message"
	OnlineStats      = "online-stats"
	Error            = "error"
)

// Envelope is the unit of delivery to a connection: a wire event name and
// its JSON-serializable payload.
type Envelope struct {
	Name    string `json:"event"`
	Payload any    `json:"data"`
}

type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

type UserStatusPayload struct {
	UserID      string `json:"user_id"`
	Status      string `json:"status"`
	OnlineUsers int    `json:"online_users"`
}

type TypingPayload struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
	Typing  bool   `json:"typing"`
}

type OnlineStatsPayload struct {
	OnlineUsers int       `json:"online_users"`
	At          time.Time `json:"at"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewMessageEnvelope(msg domain.GroupMessage) Envelope {
	return Envelope{Name: NewMessage, Payload: msg}
}

func NewDirectEnvelope(dm domain.DirectMessage) Envelope {
	return Envelope{Name: NewDirectMessage, Payload: dm}
}

func EmergencyEnvelope(alert domain.EmergencyAlert) Envelope {
	return Envelope{Name: EmergencyBcast, Payload: alert}
}

func ErrorEnvelope(err error) Envelope {
	return Envelope{Name: Error, Payload: ErrorPayload{Message: err.Error()}}
}

// Outbound couples an envelope with its routing target. Exactly one of
// Topic, UserID, or Global is set.
type Outbound struct {
	Topic  string
	UserID string
	Global bool
	Env    Envelope
}

func ToTopic(topic string, env Envelope) Outbound {
	return Outbound{Topic: topic, Env: env}
}

func ToUser(userID string, env Envelope) Outbound {
	return Outbound{UserID: userID, Env: env}
}

func ToAll(env Envelope) Outbound {
	return Outbound{Global: true, Env: env}
}
