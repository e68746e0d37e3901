package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/activity-booking/internal/booking"
	"github.com/example/activity-booking/internal/persistence"
)

const maxBodyBytes = 64 << 10

type bookingService interface {
	EnsureSession(ctx context.Context, sessionID string, requestedCapacity int) (persistence.SessionState, error)
	GetSession(ctx context.Context, sessionID string) (persistence.SessionState, bool, error)
	HasBooking(ctx context.Context, sessionID, userID string) (bool, error)
	AttachChannelMessage(ctx context.Context, sessionID string, msg persistence.ChannelMessage) (persistence.SessionState, error)
	Apply(ctx context.Context, userID string, action booking.Action) (booking.Result, error)
}

type SessionHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service bookingService, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

func (h *SessionHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req ensureSessionRequest
	if err := decodeStrict(w, r, &req); err != nil {
		h.log(r.Context(), "Ensure", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	state, err := h.service.EnsureSession(r.Context(), req.SessionID, req.Capacity)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(state)})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := h.sessionID(w, r, "Get")
	if !ok {
		return
	}

	state, found, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !found {
		h.responder.handleServiceError(r.Context(), w, booking.ErrSessionNotFound)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(state)})
}

func (h *SessionHandler) Booking(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := h.sessionID(w, r, "Booking")
	if !ok {
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	booked, err := h.service.HasBooking(r.Context(), sessionID, userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingStatusResponse{SessionID: sessionID, Booked: booked})
}

func (h *SessionHandler) AttachChannelMessage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := h.sessionID(w, r, "AttachChannelMessage")
	if !ok {
		return
	}

	var req channelMessageDTO
	if err := decodeStrict(w, r, &req); err != nil {
		h.log(r.Context(), "AttachChannelMessage", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode channel message", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	state, err := h.service.AttachChannelMessage(r.Context(), sessionID, req.toModel())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(state)})
}

func (h *SessionHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, _ := UserIDFromContext(r.Context())
	logger := h.log(r.Context(), "ApplyAction")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.WarnContext(r.Context(), "failed to read action body", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	action, err := booking.ParseAction(body)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	result, err := h.service.Apply(r.Context(), userID, action)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_id", action.SessionID, "action", string(action.Kind), "ok", result.OK).
		InfoContext(r.Context(), "action applied")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, actionResponse{
		OK:      result.OK,
		Reason:  string(result.Reason),
		Session: toSessionDTO(result.Session),
	})
}

func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	sessionID, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sessionID) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").WarnContext(r.Context(), "missing session id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return "", false
	}
	return sessionID, true
}

// decodeStrict reads exactly one JSON object into dst. Oversized bodies,
// unknown fields and trailing data are rejected.
func decodeStrict(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

type ensureSessionRequest struct {
	SessionID string `json:"sessionId"`
	Capacity  int    `json:"capacity"`
}

type channelMessageDTO struct {
	ConversationID string `json:"conversationId"`
	ServiceURL     string `json:"serviceUrl"`
	ActivityID     string `json:"activityId"`
}

func (c channelMessageDTO) toModel() persistence.ChannelMessage {
	return persistence.ChannelMessage{
		ConversationID: c.ConversationID,
		ServiceURL:     c.ServiceURL,
		ActivityID:     c.ActivityID,
	}
}

type sessionDTO struct {
	SessionID      string             `json:"sessionId"`
	Capacity       int                `json:"capacity"`
	BookedUserIDs  []string           `json:"bookedUserIds"`
	Remaining      int                `json:"remaining"`
	Full           bool               `json:"full"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	ChannelMessage *channelMessageDTO `json:"channelMessage,omitempty"`
}

type sessionResponse struct {
	Session sessionDTO `json:"session"`
}

type bookingStatusResponse struct {
	SessionID string `json:"sessionId"`
	Booked    bool   `json:"booked"`
}

type actionResponse struct {
	OK      bool       `json:"ok"`
	Reason  string     `json:"reason,omitempty"`
	Session sessionDTO `json:"session"`
}

func toSessionDTO(state persistence.SessionState) sessionDTO {
	booked := state.BookedUserIDs
	if booked == nil {
		booked = []string{}
	}
	dto := sessionDTO{
		SessionID:     state.SessionID,
		Capacity:      state.Capacity,
		BookedUserIDs: booked,
		Remaining:     state.Remaining(),
		Full:          state.Full(),
		UpdatedAt:     state.UpdatedAt.UTC(),
	}
	if msg := state.ChannelMessage; msg != nil {
		dto.ChannelMessage = &channelMessageDTO{
			ConversationID: msg.ConversationID,
			ServiceURL:     msg.ServiceURL,
			ActivityID:     msg.ActivityID,
		}
	}
	return dto
}
