package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"talkboard/domain/event"
	"talkboard/errors"
	"talkboard/sink"
)

// handleStream establishes a long-lived server-sent-events stream for
// realtime delivery. The connection starts unidentified; the client binds
// an identity by posting an announce-presence event. This handler blocks
// until the client disconnects, and the deferred cleanup guarantees the
// dispatcher's disconnect transition runs exactly once per connection.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	conn := sink.New(s.connBufferSize)
	s.addConn(conn)
	s.dispatcher.Connect(conn)
	defer func() {
		conn.Close()
		s.dispatcher.Disconnect(conn)
		s.removeConn(conn)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := writeSSE(w, event.Envelope{
		Name:    event.Connected,
		Payload: event.ConnectedPayload{ConnectionID: conn.ID()},
	}); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.log.Debug("Client disconnected", "conn", conn.ID())
			return
		case evt := <-conn.Events():
			if err := writeSSE(w, evt); err != nil {
				s.log.Warn("Failed to push event to stream", "conn", conn.ID(), "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// handleInboundEvent accepts a realtime event from the client side of an
// open stream. Errors are mapped to a status for the POST and also reach
// the stream as an error event via the dispatcher.
func (s *Server) handleInboundEvent(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.conn(mux.Vars(r)["id"])
	if !ok {
		writeError(w, errors.ErrConnNotFound)
		return
	}

	var in inboundEvent
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, errors.ErrValidation)
		return
	}

	if err := s.dispatcher.HandleEvent(conn, in.Event, in.Data); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeSSE(w io.Writer, env event.Envelope) error {
	data, err := json.Marshal(env.Payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Name, data)
	return err
}
