package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"i4.energy/across/nbiot/modem"
	"i4.energy/across/nbiot/mqtt/client"
)

// maxATTimeout caps the timeout a raw AT request may ask for.
const maxATTimeout = 60 * time.Second

// Commander is the part of the modem the HTTP API needs.
type Commander interface {
	Exec(ctx context.Context, cmd string, timeout time.Duration) (string, error)
	Identity() modem.Identity
}

// Publisher sends MQTT messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, qos byte, retain bool) error
}

// Server handles incoming HTTP requests for interacting with the
// configured modem instance and its MQTT session
type Server struct {
	Logger    *slog.Logger
	Modem     Commander
	Publisher Publisher
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /publish", s.handlePublish)
	mux.HandleFunc("POST /at", s.handleAT)
	mux.HandleFunc("GET /identity", s.handleIdentity)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps driver and session errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, client.ErrNotConnected), errors.Is(err, modem.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, modem.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, modem.ErrNack):
		return http.StatusBadGateway
	case errors.Is(err, client.ErrEncode):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// handlePublish publishes a message over the MQTT session
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	type PublishRequest struct {
		Topic   string `json:"topic"`
		Message string `json:"message"`
		QoS     byte   `json:"qos"`
		Retain  bool   `json:"retain"`
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Topic == "" {
		s.sendError(w, "'topic' field is required", http.StatusBadRequest)
		return
	}
	if req.QoS > 2 {
		s.sendError(w, "'qos' must be 0, 1 or 2", http.StatusBadRequest)
		return
	}

	if err := s.Publisher.Publish(r.Context(), req.Topic, []byte(req.Message), req.QoS, req.Retain); err != nil {
		s.Logger.Error("Failed to publish", "error", err, "topic", req.Topic)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}

	s.Logger.Info("Message published", "topic", req.Topic, "message_length", len(req.Message))
	w.WriteHeader(http.StatusOK)
}

// handleAT passes a raw AT command to the modem
func (s *Server) handleAT(w http.ResponseWriter, r *http.Request) {
	type ATRequest struct {
		Command   string `json:"command"`
		TimeoutMS int    `json:"timeout_ms"`
	}
	type ATResponse struct {
		Response string `json:"response"`
	}

	var req ATRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !strings.HasPrefix(strings.ToUpper(req.Command), "AT") {
		s.sendError(w, "'command' must start with AT", http.StatusBadRequest)
		return
	}

	timeout := modem.DefaultATTimeout
	if req.TimeoutMS > 0 {
		timeout = min(time.Duration(req.TimeoutMS)*time.Millisecond, maxATTimeout)
	}

	resp, err := s.Modem.Exec(r.Context(), req.Command, timeout)
	if err != nil {
		s.Logger.Warn("AT command failed", "error", err, "command", req.Command)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}

	s.sendJSON(w, ATResponse{Response: strings.TrimSpace(resp)})
}

// handleIdentity reports the identifiers read at startup
func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	type IdentityResponse struct {
		IMSI string `json:"imsi"`
		IMEI string `json:"imei"`
	}

	id := s.Modem.Identity()
	s.sendJSON(w, IdentityResponse{IMSI: id.IMSI, IMEI: id.IMEI})
}
