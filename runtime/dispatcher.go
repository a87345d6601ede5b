// Package runtime owns the realtime core: the presence table, the channel
// router, and the event dispatcher that coordinates them against the record
// store. It carries no transport concerns and no storage formats.
package runtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/go-playground/validator/v10"

	"talkboard/contract"
	"talkboard/domain"
	"talkboard/domain/event"
	"talkboard/errors"
	"talkboard/moderation"
	"talkboard/repositories"
)

// TokenValidator resolves a client-supplied token to a user identity. Token
// issuance belongs to the external auth layer; this is the only interface
// the core needs from it.
type TokenValidator func(token string) (string, error)

// Dispatcher validates inbound events, persists their records, and hands
// the resulting envelopes to the fanout queue. Persistence happens inline
// under the collection locks; delivery is asynchronous and never blocks a
// store mutation.
type Dispatcher struct {
	log       *slog.Logger
	presence  contract.IPresence
	router    contract.IRouter
	groups    repositories.IGroupRepository
	messages  repositories.IMessageRepository
	directs   repositories.IDirectRepository
	alerts    repositories.IAlertRepository
	users     repositories.IUserRepository
	moderator *moderation.Moderator
	validate  *validator.Validate
	tokens    TokenValidator

	out chan event.Outbound

	mu         sync.Mutex
	identities map[string]string // connection id -> user id
}

func NewDispatcher(
	log *slog.Logger,
	presence contract.IPresence,
	router contract.IRouter,
	groups repositories.IGroupRepository,
	messages repositories.IMessageRepository,
	directs repositories.IDirectRepository,
	alerts repositories.IAlertRepository,
	users repositories.IUserRepository,
	moderator *moderation.Moderator,
	tokens TokenValidator,
	bufferSize int,
) *Dispatcher {
	return &Dispatcher{
		log:        log,
		presence:   presence,
		router:     router,
		groups:     groups,
		messages:   messages,
		directs:    directs,
		alerts:     alerts,
		users:      users,
		moderator:  moderator,
		validate:   validator.New(),
		tokens:     tokens,
		out:        make(chan event.Outbound, bufferSize),
		identities: make(map[string]string),
	}
}

// Outbound is drained by the fanout worker.
func (d *Dispatcher) Outbound() <-chan event.Outbound { return d.out }

// Connect registers a fresh, still unidentified connection.
func (d *Dispatcher) Connect(conn contract.Connection) {
	d.router.Register(conn)
}

// Disconnect runs the unconditional cleanup for a connection: identity
// unbinding, presence removal, topic memberships. Calling it twice leaves
// the same state as calling it once.
func (d *Dispatcher) Disconnect(conn contract.Connection) {
	d.mu.Lock()
	userID, identified := d.identities[conn.ID()]
	delete(d.identities, conn.ID())
	d.mu.Unlock()

	d.router.Unregister(conn)

	// Compare-and-delete: a stale connection disconnecting after the user
	// re-announced elsewhere must not evict the newer presence entry.
	if identified && d.presence.Remove(userID, conn) {
		d.publish(event.ToAll(event.Envelope{
			Name: event.UserStatus,
			Payload: event.UserStatusPayload{
				UserID:      userID,
				Status:      "offline",
				OnlineUsers: d.presence.Count(),
			},
		}))
	}
}

type announcePayload struct {
	Token string `json:"token" validate:"required"`
}

type groupPayload struct {
	GroupID string `json:"group_id" validate:"required"`
}

type sendMessagePayload struct {
	GroupID string `json:"group_id" validate:"required"`
	Content string `json:"content"`
}

type alertPayload struct {
	Message  string `json:"message"`
	Location string `json:"location"`
	Severity string `json:"severity"`
}

type directPayload struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Content     string `json:"content"`
}

// HandleEvent is the realtime entry point. Any failure is reported back to
// the originating connection as an error event and returned to the
// transport; it never reaches other connections and never crashes the
// dispatcher.
func (d *Dispatcher) HandleEvent(conn contract.Connection, name string, data json.RawMessage) error {
	err := d.handle(conn, name, data)
	if err != nil {
		conn.Deliver(event.ErrorEnvelope(err))
	}
	return err
}

func (d *Dispatcher) handle(conn contract.Connection, name string, data json.RawMessage) error {
	switch name {
	case event.AnnouncePresence:
		var p announcePayload
		if err := d.decode(data, &p); err != nil {
			return err
		}
		_, err := d.Announce(conn, p.Token)
		return err

	case event.JoinGroup:
		var p groupPayload
		if err := d.decode(data, &p); err != nil {
			return err
		}
		return d.JoinGroupTopic(conn, p.GroupID)

	case event.LeaveGroup:
		var p groupPayload
		if err := d.decode(data, &p); err != nil {
			return err
		}
		return d.LeaveGroupTopic(conn, p.GroupID)

	case event.Typing, event.StopTyping:
		var p groupPayload
		if err := d.decode(data, &p); err != nil {
			return err
		}
		return d.Typing(conn, p.GroupID, name == event.Typing)

	case event.SendGroupMessage:
		var p sendMessagePayload
		if err := d.decode(data, &p); err != nil {
			return err
		}
		userID, err := d.userFor(conn)
		if err != nil {
			return err
		}
		_, err = d.SendGroupMessage(userID, p.GroupID, p.Content)
		return err

	case event.EmergencyAlert:
		var p alertPayload
		if err := d.decode(data, &p); err != nil {
			return err
		}
		userID, err := d.userFor(conn)
		if err != nil {
			return err
		}
		_, err = d.RaiseAlert(userID, p.Message, p.Location, p.Severity)
		return err

	case event.DirectMessage:
		var p directPayload
		if err := d.decode(data, &p); err != nil {
			return err
		}
		userID, err := d.userFor(conn)
		if err != nil {
			return err
		}
		_, err = d.SendDirectMessage(userID, p.RecipientID, p.Content)
		return err

	default:
		return fmt.Errorf("%w: unknown event %q", errors.ErrValidation, name)
	}
}

// Announce binds a user identity to the connection and broadcasts the
// online status. Re-announcing replaces any prior binding for the user.
func (d *Dispatcher) Announce(conn contract.Connection, token string) (string, error) {
	userID, err := d.tokens(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	d.mu.Lock()
	prevUser, rebound := d.identities[conn.ID()]
	d.identities[conn.ID()] = userID
	d.mu.Unlock()

	// A connection switching identities must not leave the old user's
	// presence entry behind; disconnect cleanup only looks up the current
	// binding.
	if rebound && prevUser != userID && d.presence.Remove(prevUser, conn) {
		d.publish(event.ToAll(event.Envelope{
			Name: event.UserStatus,
			Payload: event.UserStatusPayload{
				UserID:      prevUser,
				Status:      "offline",
				OnlineUsers: d.presence.Count(),
			},
		}))
	}

	d.presence.Announce(userID, conn)

	d.publish(event.ToAll(event.Envelope{
		Name: event.UserStatus,
		Payload: event.UserStatusPayload{
			UserID:      userID,
			Status:      "online",
			OnlineUsers: d.presence.Count(),
		},
	}))
	return userID, nil
}

func (d *Dispatcher) JoinGroupTopic(conn contract.Connection, groupID string) error {
	if _, err := d.userFor(conn); err != nil {
		return err
	}
	if _, err := d.groups.Get(groupID); err != nil {
		return err
	}
	d.router.JoinTopic(conn, domain.GroupTopic(groupID))
	return nil
}

func (d *Dispatcher) LeaveGroupTopic(conn contract.Connection, groupID string) error {
	if _, err := d.userFor(conn); err != nil {
		return err
	}
	d.router.LeaveTopic(conn, domain.GroupTopic(groupID))
	return nil
}

// Typing relays the typing state to the group topic. Never persisted.
func (d *Dispatcher) Typing(conn contract.Connection, groupID string, typing bool) error {
	userID, err := d.userFor(conn)
	if err != nil {
		return err
	}
	d.publish(event.ToTopic(domain.GroupTopic(groupID), event.Envelope{
		Name:    event.UserTyping,
		Payload: event.TypingPayload{GroupID: groupID, UserID: userID, Typing: typing},
	}))
	return nil
}

// SendGroupMessage is the single code path behind both the realtime event
// and the HTTP endpoint, so the persisted record shape is identical. The
// content is censored and language-tagged before persisting, broadcast only
// after the append succeeded.
func (d *Dispatcher) SendGroupMessage(userID, groupID, content string) (domain.GroupMessage, error) {
	if strings.TrimSpace(content) == "" {
		return domain.GroupMessage{}, errors.ErrMissingContent
	}
	member, err := d.groups.IsMember(groupID, userID)
	if err != nil {
		return domain.GroupMessage{}, err
	}
	if !member {
		return domain.GroupMessage{}, errors.ErrNotAMember
	}

	sanitized, censored := d.moderator.Censor(content)
	lang := whatlanggo.Detect(sanitized).Lang.Iso6391()

	msg := domain.GroupMessage{
		ID:        domain.NewID(),
		GroupID:   groupID,
		AuthorID:  userID,
		Content:   sanitized,
		Language:  lang,
		CreatedAt: time.Now().UTC(),
	}
	if err = d.messages.Append(msg); err != nil {
		return domain.GroupMessage{}, err
	}
	if len(censored) > 0 {
		d.log.Warn("Message content censored",
			"author", userID, "group", groupID, "words", len(censored))
	}

	d.publish(event.ToTopic(domain.GroupTopic(groupID), event.NewMessageEnvelope(msg)))
	return msg, nil
}

// RaiseAlert persists an emergency alert and broadcasts it to everyone.
// Both the HTTP endpoint and the realtime event land here, so the two entry
// points share one persistence guarantee.
func (d *Dispatcher) RaiseAlert(userID, message, location, severity string) (domain.EmergencyAlert, error) {
	if strings.TrimSpace(message) == "" {
		return domain.EmergencyAlert{}, errors.ErrMissingContent
	}

	alert := domain.EmergencyAlert{
		ID:        domain.NewID(),
		UserID:    userID,
		Status:    domain.AlertActive,
		Message:   message,
		Location:  location,
		Severity:  severity,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.alerts.Create(alert); err != nil {
		return domain.EmergencyAlert{}, err
	}

	d.publish(event.ToAll(event.EmergencyEnvelope(alert)))
	return alert, nil
}

// CloseAlert transitions an alert into a terminal state and broadcasts the
// final record so connected clients can clear it.
func (d *Dispatcher) CloseAlert(alertID string, status domain.AlertStatus) (domain.EmergencyAlert, error) {
	alert, err := d.alerts.Transition(alertID, status, time.Now().UTC())
	if err != nil {
		return domain.EmergencyAlert{}, err
	}
	d.publish(event.ToAll(event.EmergencyEnvelope(alert)))
	return alert, nil
}

// SendDirectMessage persists the record, then delivers it to the recipient
// if they are online. An offline recipient is not an error: the sender
// already has the synchronous success.
func (d *Dispatcher) SendDirectMessage(senderID, recipientID, content string) (domain.DirectMessage, error) {
	if strings.TrimSpace(content) == "" {
		return domain.DirectMessage{}, errors.ErrMissingContent
	}
	if !d.users.Exists(recipientID) {
		return domain.DirectMessage{}, errors.ErrUserNotFound
	}

	dm := domain.DirectMessage{
		ID:          domain.NewID(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}
	if err := d.directs.Append(dm); err != nil {
		return domain.DirectMessage{}, err
	}

	d.publish(event.ToUser(recipientID, event.NewDirectEnvelope(dm)))
	return dm, nil
}

func (d *Dispatcher) userFor(conn contract.Connection) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	userID, ok := d.identities[conn.ID()]
	if !ok {
		return "", errors.ErrUnidentified
	}
	return userID, nil
}

func (d *Dispatcher) decode(data json.RawMessage, payload any) error {
	if len(data) > 0 {
		if err := json.Unmarshal(data, payload); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
	}
	if err := d.validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}

func (d *Dispatcher) publish(out event.Outbound) {
	select {
	case d.out <- out:
	default:
		d.log.Warn("Outbound queue full, dropping event", "event", out.Env.Name)
	}
}
