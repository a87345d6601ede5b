package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"talkboard/auth"
	"talkboard/domain"
	"talkboard/errors"
)

// The REST endpoints call the same dispatcher operations as the realtime
// events, so both entry points persist identical record shapes and share
// one broadcast path.

type createMessageRequest struct {
	Content string `json:"content"`
}

type createAlertRequest struct {
	Message  string `json:"message"`
	Location string `json:"location"`
	Severity string `json:"severity"`
}

type sendDirectRequest struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

func (s *Server) handleListGroups(w http.ResponseWriter, _ *http.Request) {
	groups := s.groups.List()
	if groups == nil {
		groups = []domain.Group{}
	}
	for i := range groups {
		groups[i].MessageCount = s.messages.CountForGroup(groups[i].ID)
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.groups.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	group.MessageCount = s.messages.CountForGroup(group.ID)
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeError(w, errors.ErrUnidentified)
		return
	}
	if err := s.groups.Join(mux.Vars(r)["id"], userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeError(w, errors.ErrUnidentified)
		return
	}
	if err := s.groups.Leave(mux.Vars(r)["id"], userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateGroupMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeError(w, errors.ErrUnidentified)
		return
	}
	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.ErrValidation)
		return
	}
	msg, err := s.dispatcher.SendGroupMessage(userID, mux.Vars(r)["id"], req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleListGroupMessages(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["id"]
	if _, err := s.groups.Get(groupID); err != nil {
		writeError(w, err)
		return
	}
	msgs := s.messages.ForGroup(groupID)
	if msgs == nil {
		msgs = []domain.GroupMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeError(w, errors.ErrUnidentified)
		return
	}
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.ErrValidation)
		return
	}
	alert, err := s.dispatcher.RaiseAlert(userID, req.Message, req.Location, req.Severity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

func (s *Server) handleActiveAlerts(w http.ResponseWriter, _ *http.Request) {
	active := s.alerts.Active()
	if active == nil {
		active = []domain.EmergencyAlert{}
	}
	writeJSON(w, http.StatusOK, active)
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	s.closeAlert(w, r, domain.AlertResolved)
}

func (s *Server) handleCancelAlert(w http.ResponseWriter, r *http.Request) {
	s.closeAlert(w, r, domain.AlertCancelled)
}

func (s *Server) closeAlert(w http.ResponseWriter, r *http.Request, status domain.AlertStatus) {
	alert, err := s.dispatcher.CloseAlert(mux.Vars(r)["id"], status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (s *Server) handleSendDirect(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeError(w, errors.ErrUnidentified)
		return
	}
	var req sendDirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.ErrValidation)
		return
	}
	dm, err := s.dispatcher.SendDirectMessage(userID, req.RecipientID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dm)
}

// handleConversation returns the exchange with the other user and marks
// their messages to the caller as read.
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeError(w, errors.ErrUnidentified)
		return
	}
	other := mux.Vars(r)["userID"]
	if err := s.directs.MarkRead(userID, other); err != nil {
		writeError(w, err)
		return
	}
	conversation := s.directs.Conversation(userID, other)
	if conversation == nil {
		conversation = []domain.DirectMessage{}
	}
	writeJSON(w, http.StatusOK, conversation)
}
