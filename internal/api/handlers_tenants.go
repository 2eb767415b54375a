// internal/api/handlers_tenants.go
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tenant-chat/internal/auth"
	"tenant-chat/internal/model"
)

type createTenantRequest struct {
	Name       string `json:"name"`
	Domain     string `json:"domain"`
	PublicKey  string `json:"public_key"`
	WebhookURL string `json:"webhook_url"`
}

type createTenantResponse struct {
	TenantID string `json:"tenant_id"`
	Token    string `json:"token"`
}

// @Summary Create a tenant
// @Tags Tenants
// @Accept json
// @Produce json
// @Param body body createTenantRequest true "Tenant attributes"
// @Success 201 {object} createTenantResponse
// @Router /tenants [post]
func (a *API) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var body createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if body.Name == "" || body.Domain == "" {
		http.Error(w, "name and domain are required", http.StatusBadRequest)
		return
	}

	tenant := &model.Tenant{
		ID:              uuid.New(),
		Name:            body.Name,
		Domain:          body.Domain,
		PublicKey:       body.PublicKey,
		WebhookURL:      body.WebhookURL,
		DispatchWorkers: a.Cfg.Dispatch.Workers,
		CreatedAt:       time.Now().UTC(),
	}
	if err := a.Storage.CreateTenant(r.Context(), tenant); err != nil {
		respondError(w, err)
		return
	}

	if a.Dispatcher != nil {
		if err := a.Dispatcher.AddTenant(*tenant, a.Cfg.Dispatch.Workers); err != nil {
			log.Printf("API: failed to start dispatcher for tenant %s: %v", tenant.ID, err)
		}
	}

	token, err := auth.GenerateToken(tenant.ID.String())
	if err != nil {
		respondError(w, err)
		return
	}

	log.Printf("API: Created tenant %s", tenant.ID)
	respondJSON(w, http.StatusCreated, createTenantResponse{
		TenantID: tenant.ID.String(),
		Token:    token,
	})
}

// @Summary Delete the authenticated tenant
// @Tags Tenants
// @Security ApiKeyAuth
// @Success 204
// @Router /tenants [delete]
func (a *API) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.GetTenantID(r)
	if !ok {
		http.Error(w, "unauthorized tenant", http.StatusUnauthorized)
		return
	}

	if a.Dispatcher != nil {
		a.Dispatcher.RemoveTenant(tenantID)
	}
	if err := a.Storage.DeleteTenant(r.Context(), tenantID); err != nil {
		respondError(w, err)
		return
	}

	log.Printf("API: Deleted tenant %s", tenantID)
	w.WriteHeader(http.StatusNoContent)
}

type dispatchConfigRequest struct {
	Workers int `json:"workers"`
}

// @Summary Update dispatch worker concurrency
// @Tags Tenants
// @Security ApiKeyAuth
// @Param body body dispatchConfigRequest true "Dispatch config"
// @Success 204
// @Router /tenants/config/dispatch [put]
func (a *API) UpdateDispatchWorkers(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.GetTenantID(r)
	if !ok {
		http.Error(w, "unauthorized tenant", http.StatusUnauthorized)
		return
	}

	var body dispatchConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if body.Workers < 1 {
		http.Error(w, "workers must be at least 1", http.StatusBadRequest)
		return
	}

	if a.Dispatcher != nil {
		if err := a.Dispatcher.SetWorkerCount(tenantID, body.Workers); err != nil {
			respondError(w, err)
			return
		}
	}
	if err := a.Storage.UpdateTenantDispatchWorkers(r.Context(), tenantID, body.Workers); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
