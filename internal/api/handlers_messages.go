// internal/api/handlers_messages.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tenant-chat/internal/auth"
	"tenant-chat/internal/channel"
	"tenant-chat/internal/metrics"
	"tenant-chat/internal/model"
	"tenant-chat/internal/notify"
	"tenant-chat/internal/storage"
)

type appendMessageRequest struct {
	SenderID string            `json:"sender_id"`
	Type     string            `json:"type"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// @Summary Append a message to a channel
// @Tags Messages
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Channel UUID"
// @Param body body appendMessageRequest true "Message"
// @Success 201 {object} model.Message
// @Failure 404 {object} errorBody
// @Failure 422 {object} errorBody
// @Router /channels/{id}/messages [post]
func (a *API) AppendMessage(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.GetTenantID(r)
	if !ok {
		http.Error(w, "unauthorized tenant", http.StatusUnauthorized)
		return
	}

	channelID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid channel id", http.StatusBadRequest)
		return
	}

	var body appendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	senderID, err := uuid.Parse(body.SenderID)
	if err != nil {
		respondError(w, &channel.ValidationError{Field: "sender_id", Reason: "malformed identifier"})
		return
	}
	msgType := model.MessageType(body.Type)
	if !msgType.Valid() {
		respondError(w, &channel.ValidationError{Field: "type", Reason: "must be one of text, image, file, system"})
		return
	}
	if body.Content == "" {
		respondError(w, &channel.ValidationError{Field: "content", Reason: "must not be empty"})
		return
	}

	msg := &model.Message{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ChannelID: channelID,
		SenderID:  senderID,
		Type:      msgType,
		Content:   body.Content,
		Metadata:  body.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.Storage.AppendMessage(r.Context(), msg); err != nil {
		respondError(w, err)
		return
	}
	metrics.MessagesAppended.WithLabelValues(tenantID.String()).Inc()

	// Best-effort: the append already committed, a sink failure stays local.
	a.Sink.Emit(notify.Event{
		Kind:       notify.KindMessageCreated,
		TenantID:   tenantID,
		ChannelID:  channelID,
		CustomerID: senderID,
		Payload:    map[string]string{"message_id": msg.ID.String(), "type": string(msg.Type)},
		OccurredAt: msg.CreatedAt,
	})

	respondJSON(w, http.StatusCreated, msg)
}

type messagePage struct {
	Items   []model.Message `json:"data"`
	HasMore bool            `json:"has_more"`
}

// @Summary List a channel's messages, newest first
// @Tags Messages
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Channel UUID"
// @Param limit query int false "Page size"
// @Param starting_after query string false "Message id of the last item seen"
// @Success 200 {object} messagePage
// @Router /channels/{id}/messages [get]
func (a *API) ListMessages(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.GetTenantID(r)
	if !ok {
		http.Error(w, "unauthorized tenant", http.StatusUnauthorized)
		return
	}

	channelID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid channel id", http.StatusBadRequest)
		return
	}

	ch, err := a.Storage.GetChannel(r.Context(), tenantID, channelID)
	if err != nil {
		respondError(w, err)
		return
	}
	if ch == nil {
		respondError(w, &channel.NotFoundError{Resource: "channel", ID: channelID})
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))

	var after *storage.MessageCursor
	if raw := r.URL.Query().Get("starting_after"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid starting_after cursor", http.StatusBadRequest)
			return
		}
		cursorMsg, err := a.Storage.GetMessage(r.Context(), tenantID, id)
		if err != nil {
			respondError(w, err)
			return
		}
		if cursorMsg == nil {
			respondError(w, &channel.NotFoundError{Resource: "message", ID: id})
			return
		}
		after = &storage.MessageCursor{CreatedAt: cursorMsg.CreatedAt, ID: cursorMsg.ID}
	}

	items, err := a.Storage.ListMessages(r.Context(), tenantID, channelID, after, limit+1)
	if err != nil {
		respondError(w, err)
		return
	}
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	respondJSON(w, http.StatusOK, messagePage{Items: items, HasMore: hasMore})
}

type typingRequest struct {
	CustomerID string `json:"customer_id"`
	Typing     bool   `json:"typing"`
}

// @Summary Signal typing state in a channel
// @Tags Messages
// @Security ApiKeyAuth
// @Accept json
// @Param id path string true "Channel UUID"
// @Param body body typingRequest true "Typing state"
// @Success 202
// @Router /channels/{id}/typing [post]
func (a *API) Typing(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.GetTenantID(r)
	if !ok {
		http.Error(w, "unauthorized tenant", http.StatusUnauthorized)
		return
	}

	channelID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid channel id", http.StatusBadRequest)
		return
	}

	var body typingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	customerID, err := uuid.Parse(body.CustomerID)
	if err != nil {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}

	kind := notify.KindTypingStopped
	if body.Typing {
		kind = notify.KindTypingStarted
	}
	a.Sink.Emit(notify.Event{
		Kind:       kind,
		TenantID:   tenantID,
		ChannelID:  channelID,
		CustomerID: customerID,
		OccurredAt: time.Now().UTC(),
	})

	w.WriteHeader(http.StatusAccepted)
}

func parseLimit(raw string) int {
	if raw == "" {
		return 10
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 10
	}
	if n > 100 {
		return 100
	}
	return n
}

func (a *API) countConflict(tenantID uuid.UUID, err error) {
	var conflict *channel.ConflictError
	if errors.As(err, &conflict) {
		metrics.ChannelConflicts.WithLabelValues(tenantID.String()).Inc()
	}
}

func (a *API) recordCreated(res *channel.Resolution) {
	ch := res.Channel
	metrics.ChannelsCreated.WithLabelValues(ch.TenantID.String(), string(ch.Type)).Inc()
	if res.GeneralProvisioned {
		metrics.ChannelsCreated.WithLabelValues(ch.TenantID.String(), string(model.ChannelGeneral)).Inc()
	}
}
