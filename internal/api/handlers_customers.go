// internal/api/handlers_customers.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tenant-chat/internal/auth"
	"tenant-chat/internal/model"
)

type createCustomerRequest struct {
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata"`
}

// @Summary Create a customer
// @Tags Customers
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body createCustomerRequest true "Customer attributes"
// @Success 201 {object} model.Customer
// @Router /customers [post]
func (a *API) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.GetTenantID(r)
	if !ok {
		http.Error(w, "unauthorized tenant", http.StatusUnauthorized)
		return
	}

	var body createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if body.Name == "" || body.Email == "" {
		http.Error(w, "name and email are required", http.StatusBadRequest)
		return
	}

	customer := &model.Customer{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      body.Name,
		Email:     body.Email,
		Metadata:  body.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.Storage.CreateCustomer(r.Context(), customer); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, customer)
}

// @Summary Find a customer by email
// @Tags Customers
// @Security ApiKeyAuth
// @Produce json
// @Param email query string true "Customer email"
// @Success 200 {object} model.Customer
// @Router /customers [get]
func (a *API) FindCustomerByEmail(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.GetTenantID(r)
	if !ok {
		http.Error(w, "unauthorized tenant", http.StatusUnauthorized)
		return
	}

	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "email query parameter is required", http.StatusBadRequest)
		return
	}

	customer, err := a.Storage.FindCustomerByEmail(r.Context(), tenantID, email)
	if err != nil {
		respondError(w, err)
		return
	}
	if customer == nil {
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

// @Summary Soft-delete a customer
// @Tags Customers
// @Security ApiKeyAuth
// @Param id path string true "Customer UUID"
// @Success 204
// @Router /customers/{id} [delete]
func (a *API) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.GetTenantID(r)
	if !ok {
		http.Error(w, "unauthorized tenant", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}

	deleted, err := a.Storage.SoftDeleteCustomer(r.Context(), tenantID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	if !deleted {
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
