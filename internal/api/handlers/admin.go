package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"prompthub/internal/app"
	"prompthub/internal/repository/db"
	"prompthub/internal/service/configresolver"
	promptService "prompthub/internal/service/prompt"
	tenantService "prompthub/internal/service/tenant"
	"prompthub/pkg/validation"
)

// Request/Response types

type TenantRequest struct {
	Name        string   `json:"name"`
	OwnerID     string   `json:"owner_id,omitempty"`
	APIKey      string   `json:"api_key,omitempty"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type TenantData struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	OwnerID     string  `json:"owner_id"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type PromptRequest struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
}

type PromptData struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}

// AdminHandlers serves the tenant and prompt write paths. Each write
// propagates into the config cache through the services.
type AdminHandlers struct {
	app             *app.App
	tenantValidator *validation.TenantRequestValidator
	promptValidator *validation.PromptRequestValidator
	tenants         *tenantService.Service
	prompts         *promptService.Service
}

// NewAdminHandlers creates AdminHandlers from the application container.
func NewAdminHandlers(application *app.App) *AdminHandlers {
	resolver := configresolver.NewResolver(application.Cache, application.DB)
	return &AdminHandlers{
		app:             application,
		tenantValidator: validation.NewTenantRequestValidator(),
		promptValidator: validation.NewPromptRequestValidator(),
		tenants:         tenantService.NewService(application.DB, resolver),
		prompts:         promptService.NewService(application.DB, resolver),
	}
}

func (h *AdminHandlers) tenantDefaults(req *TenantRequest) tenantService.CreateTenantRequest {
	model := req.Model
	if model == "" {
		model = h.app.AppConfig.Generation.DefaultModel
	}
	temperature := h.app.AppConfig.Generation.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	return tenantService.CreateTenantRequest{
		Name:        req.Name,
		OwnerID:     req.OwnerID,
		APIKey:      req.APIKey,
		Model:       model,
		Temperature: temperature,
	}
}

// CreateTenant handles POST /api/tenants
func (h *AdminHandlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req TenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.tenantValidator.ValidateName(req.Name); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}
	if req.Temperature != nil {
		if err := h.tenantValidator.ValidateTemperature(*req.Temperature); err != nil {
			sendError(w, http.StatusBadRequest, "Validation failed", err)
			return
		}
	}

	tenant, err := h.tenants.Create(r.Context(), h.tenantDefaults(&req))
	if err != nil {
		sendError(w, http.StatusInternalServerError, "Error creating tenant", err)
		return
	}
	sendJSON(w, http.StatusCreated, tenantData(tenant))
}

// ListTenants handles GET /api/tenants?owner_id=...
func (h *AdminHandlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		sendError(w, http.StatusBadRequest, "owner_id query parameter is required", nil)
		return
	}

	tenants, err := h.tenants.ListByOwner(r.Context(), ownerID)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "Error retrieving tenants", err)
		return
	}
	result := make([]TenantData, 0, len(tenants))
	for i := range tenants {
		result = append(result, tenantData(&tenants[i]))
	}
	sendJSON(w, http.StatusOK, result)
}

// GetTenant handles GET /api/tenants/{id}
func (h *AdminHandlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.tenants.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.sendTenantError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, tenantData(tenant))
}

// UpdateTenant handles PUT /api/tenants/{id}
func (h *AdminHandlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	var req TenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.tenantValidator.ValidateName(req.Name); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}
	if req.Temperature != nil {
		if err := h.tenantValidator.ValidateTemperature(*req.Temperature); err != nil {
			sendError(w, http.StatusBadRequest, "Validation failed", err)
			return
		}
	}

	tenant, err := h.tenants.Update(r.Context(), r.PathValue("id"), h.tenantDefaults(&req))
	if err != nil {
		h.sendTenantError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, tenantData(tenant))
}

// DeleteTenant handles DELETE /api/tenants/{id}
func (h *AdminHandlers) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.tenants.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.sendTenantError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, DeleteResponse{Success: true})
}

// CreatePrompt handles POST /api/tenants/{id}/prompts
func (h *AdminHandlers) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.promptValidator.ValidateName(req.Name); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}
	if err := h.promptValidator.ValidateInstruction(req.Instruction); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	prompt, err := h.prompts.Create(r.Context(), r.PathValue("id"), req.Name, req.Instruction)
	if err != nil {
		h.sendPromptError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, promptData(prompt))
}

// ListPrompts handles GET /api/tenants/{id}/prompts
func (h *AdminHandlers) ListPrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.prompts.ListByTenant(r.Context(), r.PathValue("id"))
	if err != nil {
		h.sendPromptError(w, err)
		return
	}
	result := make([]PromptData, 0, len(prompts))
	for i := range prompts {
		result = append(result, promptData(&prompts[i]))
	}
	sendJSON(w, http.StatusOK, result)
}

// GetPrompt handles GET /api/tenants/{id}/prompts/{promptId}
func (h *AdminHandlers) GetPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.prompts.Get(r.Context(), r.PathValue("id"), r.PathValue("promptId"))
	if err != nil {
		h.sendPromptError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, promptData(prompt))
}

// UpdatePrompt handles PUT /api/tenants/{id}/prompts/{promptId}
func (h *AdminHandlers) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.promptValidator.ValidateName(req.Name); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}
	if err := h.promptValidator.ValidateInstruction(req.Instruction); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	prompt, err := h.prompts.Update(r.Context(), r.PathValue("id"), r.PathValue("promptId"), req.Name, req.Instruction)
	if err != nil {
		h.sendPromptError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, promptData(prompt))
}

// DeletePrompt handles DELETE /api/tenants/{id}/prompts/{promptId}
func (h *AdminHandlers) DeletePrompt(w http.ResponseWriter, r *http.Request) {
	if err := h.prompts.Delete(r.Context(), r.PathValue("id"), r.PathValue("promptId")); err != nil {
		h.sendPromptError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, DeleteResponse{Success: true})
}

func (h *AdminHandlers) sendTenantError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, http.StatusNotFound, "Tenant not found", err)
		return
	}
	sendError(w, http.StatusInternalServerError, "Internal server error", err)
}

func (h *AdminHandlers) sendPromptError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, http.StatusNotFound, "Tenant or prompt not found", err)
		return
	}
	sendError(w, http.StatusInternalServerError, "Internal server error", err)
}

func tenantData(tenant *db.Tenant) TenantData {
	return TenantData{
		ID:          tenant.ID,
		Name:        tenant.Name,
		OwnerID:     tenant.OwnerID,
		Model:       tenant.Model,
		Temperature: tenant.Temperature,
		CreatedAt:   tenant.CreatedAt.String(),
		UpdatedAt:   tenant.UpdatedAt.String(),
	}
}

func promptData(prompt *db.Prompt) PromptData {
	return PromptData{
		ID:          prompt.ID,
		TenantID:    prompt.TenantID,
		Name:        prompt.Name,
		Instruction: prompt.Instruction,
		CreatedAt:   prompt.CreatedAt.String(),
		UpdatedAt:   prompt.UpdatedAt.String(),
	}
}
