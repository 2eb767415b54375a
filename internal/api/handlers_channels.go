// internal/api/handlers_channels.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tenant-chat/internal/activity"
	"tenant-chat/internal/auth"
	"tenant-chat/internal/channel"
	"tenant-chat/internal/model"
	"tenant-chat/internal/notify"
)

type resolveChannelRequest struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

type resolveChannelResponse struct {
	Channel            *model.Channel `json:"channel"`
	Created            bool           `json:"created"`
	GeneralProvisioned bool           `json:"general_provisioned"`
}

// @Summary Resolve or create a channel
// @Tags Channels
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body resolveChannelRequest true "Channel request"
// @Success 200 {object} resolveChannelResponse
// @Success 201 {object} resolveChannelResponse
// @Failure 409 {object} errorBody
// @Failure 422 {object} errorBody
// @Router /channels [post]
func (a *API) ResolveChannel(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.GetTenantID(r)
	if !ok {
		http.Error(w, "unauthorized tenant", http.StatusUnauthorized)
		return
	}

	var body resolveChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	participants := make([]uuid.UUID, 0, len(body.Participants))
	for _, raw := range body.Participants {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, &channel.ValidationError{Field: "participants", Reason: "malformed identifier " + raw})
			return
		}
		participants = append(participants, id)
	}

	res, err := a.Resolver.Resolve(r.Context(), channel.Request{
		TenantID:     tenantID,
		Type:         model.ChannelType(body.Type),
		Name:         body.Name,
		Participants: participants,
	})
	if err != nil {
		a.countConflict(tenantID, err)
		respondError(w, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
		a.recordCreated(res)
		for _, p := range res.Channel.Participants {
			a.Sink.Emit(notify.Event{
				Kind:       notify.KindParticipantJoined,
				TenantID:   tenantID,
				ChannelID:  res.Channel.ID,
				CustomerID: p,
				OccurredAt: time.Now().UTC(),
			})
		}
	}

	respondJSON(w, status, resolveChannelResponse{
		Channel:            res.Channel,
		Created:            res.Created,
		GeneralProvisioned: res.GeneralProvisioned,
	})
}

// @Summary List channels ordered by recent activity
// @Tags Channels
// @Security ApiKeyAuth
// @Produce json
// @Param limit query int false "Page size"
// @Param starting_after query string false "Channel id of the last item seen"
// @Param customer_id query string false "Restrict to channels containing this customer"
// @Success 200 {object} activity.Page
// @Router /channels [get]
func (a *API) ListChannels(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.GetTenantID(r)
	if !ok {
		http.Error(w, "unauthorized tenant", http.StatusUnauthorized)
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))

	var startingAfter *uuid.UUID
	if raw := r.URL.Query().Get("starting_after"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid starting_after cursor", http.StatusBadRequest)
			return
		}
		startingAfter = &id
	}

	var scope activity.Scope
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid customer_id", http.StatusBadRequest)
			return
		}
		scope.CustomerID = &id
	}

	page, err := a.Activity.ListOrdered(r.Context(), tenantID, scope, limit, startingAfter)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}
