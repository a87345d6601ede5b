package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"talkboard/auth"
	"talkboard/domain"
	"talkboard/moderation"
	"talkboard/repositories"
	"talkboard/runtime"
	"talkboard/runtime/workers"
	"talkboard/storage"
)

type serverFixture struct {
	ts       *httptest.Server
	tokens   *auth.TokenManager
	groups   *repositories.GroupRepository
	messages *repositories.MessageRepository
	directs  *repositories.DirectRepository
	alerts   *repositories.AlertRepository
	users    *repositories.UserRepository
}

// newServerFixture wires the full stack against a throwaway disk store, with
// the fanout worker running so stream delivery behaves like production.
func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	req := require.New(t)
	log := slog.Default()

	store, err := storage.NewDiskStore(t.TempDir())
	req.NoError(err)

	f := &serverFixture{
		tokens:   auth.NewTokenManager("test-secret", time.Hour),
		groups:   repositories.NewGroupRepository(store, log),
		messages: repositories.NewMessageRepository(store, log),
		directs:  repositories.NewDirectRepository(store, log),
		alerts:   repositories.NewAlertRepository(store, log),
		users:    repositories.NewUserRepository(store, log),
	}

	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)

	presence := runtime.NewPresence()
	router := runtime.NewRouter(log, presence)
	dispatcher := runtime.NewDispatcher(log, presence, router,
		f.groups, f.messages, f.directs, f.alerts, f.users,
		moderator, f.tokens.UserID, 16)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = workers.NewFanoutWorker(log, router, dispatcher.Outbound()).Run(ctx)
	}()

	server := NewServer(log, dispatcher, f.groups, f.messages, f.directs,
		f.alerts, f.tokens, 16)
	f.ts = httptest.NewServer(server.Router())
	t.Cleanup(f.ts.Close)
	return f
}

func (f *serverFixture) request(t *testing.T, method, path, userID string, body any) *http.Response {
	t.Helper()
	req := require.New(t)

	var buf bytes.Buffer
	if body != nil {
		req.NoError(json.NewEncoder(&buf).Encode(body))
	}
	httpReq, err := http.NewRequest(method, f.ts.URL+path, &buf)
	req.NoError(err)
	if userID != "" {
		token, err := f.tokens.Generate(userID)
		req.NoError(err)
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.ts.Client().Do(httpReq)
	req.NoError(err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func Test_Server_Health(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)

	resp := f.request(t, http.MethodGet, "/healthz", "", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
}

func Test_Server_APIRequiresToken(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)

	resp := f.request(t, http.MethodGet, "/api/groups/g1", "", nil)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func Test_Server_GroupFlow(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)
	req.NoError(f.groups.Create(domain.Group{ID: "g1", Name: "Breakfast"}))

	// Join
	resp := f.request(t, http.MethodPost, "/api/groups/g1/join", "alice", nil)
	req.Equal(http.StatusNoContent, resp.StatusCode)

	// Post a message through the same path the realtime event uses
	resp = f.request(t, http.MethodPost, "/api/groups/g1/messages", "alice",
		map[string]string{"content": "good morning"})
	req.Equal(http.StatusCreated, resp.StatusCode)
	msg := decodeBody[domain.GroupMessage](t, resp)
	req.Equal("good morning", msg.Content)
	req.Equal("alice", msg.AuthorID)

	// The group view derives both counters on read
	resp = f.request(t, http.MethodGet, "/api/groups/g1", "alice", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	group := decodeBody[domain.Group](t, resp)
	req.Equal(1, group.MemberCount)
	req.Equal(1, group.MessageCount)

	// Listing returns the persisted message
	resp = f.request(t, http.MethodGet, "/api/groups/g1/messages", "alice", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	msgs := decodeBody[[]domain.GroupMessage](t, resp)
	req.Len(msgs, 1)
	req.Equal(msg.ID, msgs[0].ID)
}

func Test_Server_ListGroups(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)
	req.NoError(f.groups.Create(domain.Group{ID: "g1", Name: "Breakfast", Members: []string{"alice"}}))
	req.NoError(f.groups.Create(domain.Group{ID: "g2", Name: "Garden"}))
	req.NoError(f.messages.Append(domain.GroupMessage{ID: "m1", GroupID: "g1", AuthorID: "alice", Content: "hi"}))

	resp := f.request(t, http.MethodGet, "/api/groups", "alice", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	groups := decodeBody[[]domain.Group](t, resp)
	req.Len(groups, 2)
	req.Equal(1, groups[0].MemberCount)
	req.Equal(1, groups[0].MessageCount)
	req.Zero(groups[1].MemberCount)
	req.Zero(groups[1].MessageCount)
}

func Test_Server_NonMemberCannotPostMessage(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)
	req.NoError(f.groups.Create(domain.Group{ID: "g1", Members: []string{"alice"}}))

	resp := f.request(t, http.MethodPost, "/api/groups/g1/messages", "carol",
		map[string]string{"content": "let me in"})
	req.Equal(http.StatusForbidden, resp.StatusCode)
	req.Zero(f.messages.CountForGroup("g1"))
}

func Test_Server_UnknownGroupIs404(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)

	resp := f.request(t, http.MethodGet, "/api/groups/nope", "alice", nil)
	req.Equal(http.StatusNotFound, resp.StatusCode)

	resp = f.request(t, http.MethodPost, "/api/groups/nope/join", "alice", nil)
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func Test_Server_AlertLifecycle(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)

	resp := f.request(t, http.MethodPost, "/api/alerts", "alice",
		map[string]string{"message": "I fell", "location": "kitchen", "severity": "high"})
	req.Equal(http.StatusCreated, resp.StatusCode)
	alert := decodeBody[domain.EmergencyAlert](t, resp)
	req.Equal(domain.AlertActive, alert.Status)

	resp = f.request(t, http.MethodGet, "/api/alerts/active", "bob", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	active := decodeBody[[]domain.EmergencyAlert](t, resp)
	req.Len(active, 1)

	resp = f.request(t, http.MethodPost, "/api/alerts/"+alert.ID+"/resolve", "bob", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	resolved := decodeBody[domain.EmergencyAlert](t, resp)
	req.Equal(domain.AlertResolved, resolved.Status)
	req.NotNil(resolved.ResolvedAt)

	// A terminal alert cannot be closed again
	resp = f.request(t, http.MethodPost, "/api/alerts/"+alert.ID+"/cancel", "bob", nil)
	req.Equal(http.StatusConflict, resp.StatusCode)
}

func Test_Server_DirectMessageFlow(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)
	req.NoError(f.users.Put(domain.User{ID: "bob", Name: "Bob"}))

	resp := f.request(t, http.MethodPost, "/api/direct", "alice",
		map[string]string{"recipient_id": "bob", "content": "hello bob"})
	req.Equal(http.StatusCreated, resp.StatusCode)

	// Fetching the conversation as the recipient marks it read
	resp = f.request(t, http.MethodGet, "/api/direct/alice", "bob", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	conversation := decodeBody[[]domain.DirectMessage](t, resp)
	req.Len(conversation, 1)
	req.True(conversation[0].Read)
}

func Test_Server_DirectMessageToUnknownUser(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)

	resp := f.request(t, http.MethodPost, "/api/direct", "alice",
		map[string]string{"recipient_id": "ghost", "content": "hello"})
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

// sseFrame is one parsed server-sent event.
type sseFrame struct {
	Event string
	Data  string
}

func readFrame(t *testing.T, scanner *bufio.Scanner) sseFrame {
	t.Helper()
	var frame sseFrame
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			frame.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			frame.Data = strings.TrimPrefix(line, "data: ")
		case line == "" && frame.Event != "":
			return frame
		}
	}
	require.FailNow(t, "stream ended before a full frame")
	return frame
}

func Test_Server_StreamAnnounceAndStatus(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)

	resp, err := f.ts.Client().Get(f.ts.URL + "/rt/stream")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)

	// The first frame hands the client its connection id
	frame := readFrame(t, scanner)
	req.Equal("connected", frame.Event)
	var connected struct {
		ConnectionID string `json:"connection_id"`
	}
	req.NoError(json.Unmarshal([]byte(frame.Data), &connected))
	req.NotEmpty(connected.ConnectionID)

	// Announcing with a valid token binds the identity
	token, err := f.tokens.Generate("alice")
	req.NoError(err)
	eventsURL := fmt.Sprintf("%s/rt/connections/%s/events", f.ts.URL, connected.ConnectionID)
	body := fmt.Sprintf(`{"event":"announce-presence","data":{"token":"%s"}}`, token)
	post, err := f.ts.Client().Post(eventsURL, "application/json", strings.NewReader(body))
	req.NoError(err)
	defer post.Body.Close()
	req.Equal(http.StatusAccepted, post.StatusCode)

	// The online status comes back on the stream
	frame = readFrame(t, scanner)
	req.Equal("user-status", frame.Event)
	var status struct {
		UserID string `json:"user_id"`
		Status string `json:"status"`
	}
	req.NoError(json.Unmarshal([]byte(frame.Data), &status))
	req.Equal("alice", status.UserID)
	req.Equal("online", status.Status)
}

func Test_Server_InboundEventForUnknownConnection(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)

	resp, err := f.ts.Client().Post(f.ts.URL+"/rt/connections/nope/events",
		"application/json", strings.NewReader(`{"event":"typing","data":{}}`))
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func Test_Server_InboundEventWithBadPayload(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)

	resp, err := f.ts.Client().Get(f.ts.URL + "/rt/stream")
	req.NoError(err)
	defer resp.Body.Close()

	frame := readFrame(t, bufio.NewScanner(resp.Body))
	var connected struct {
		ConnectionID string `json:"connection_id"`
	}
	req.NoError(json.Unmarshal([]byte(frame.Data), &connected))

	eventsURL := fmt.Sprintf("%s/rt/connections/%s/events", f.ts.URL, connected.ConnectionID)
	post, err := f.ts.Client().Post(eventsURL, "application/json",
		strings.NewReader(`{"event":"join-group","data":{}}`))
	req.NoError(err)
	defer post.Body.Close()
	req.Equal(http.StatusBadRequest, post.StatusCode)
}
