package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"prompthub/internal/app"
	"prompthub/internal/logger"
	"prompthub/internal/repository/db"
	"prompthub/internal/service/configresolver"
	"prompthub/internal/service/identity"
	"prompthub/internal/service/summary"
	webhookService "prompthub/internal/service/webhook"
	"prompthub/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Request/Response types

type WebhookRequest struct {
	TenantID       string   `json:"tenant_id"`
	PromptID       string   `json:"prompt_id"`
	Text           string   `json:"text"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Alias          string   `json:"alias,omitempty"`
	Precheck       bool     `json:"precheck,omitempty"`
	Threshold      *float64 `json:"threshold,omitempty"`
}

type WebhookResponse struct {
	Text             string `json:"text"`
	ConversationID   string `json:"conversation_id,omitempty"`
	Terminated       bool   `json:"terminated"`
	AnsweringMachine bool   `json:"answering_machine,omitempty"`
	Error            string `json:"error,omitempty"`
}

// WebhookHandlers serves the inbound webhook endpoint
type WebhookHandlers struct {
	app       *app.App
	validator *validation.WebhookRequestValidator
	service   *webhookService.Service
}

// NewWebhookHandlers wires the webhook pipeline from the application
// dependency container.
func NewWebhookHandlers(application *app.App) *WebhookHandlers {
	resolver := configresolver.NewResolver(application.Cache, application.DB)
	summarizer := summary.NewService(application.DB, application.Generator, application.AppConfig.Generation.SummarizationPrompt)
	service := webhookService.NewService(
		application.DB,
		resolver,
		identity.NewResolver(application.DB),
		summarizer,
		application.Generator,
		application.Classifier,
	)

	return &WebhookHandlers{
		app:       application,
		validator: validation.NewWebhookRequestValidator(),
		service:   service,
	}
}

// HandleWebhook processes one inbound message through the conversational
// pipeline.
func (h *WebhookHandlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	threshold := h.app.AppConfig.Classifier.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	if err := h.validator.ValidateWebhookRequest(req.TenantID, req.PromptID, req.Text, threshold); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	logger.Log.WithFields(logrus.Fields{
		"tenant_id":  req.TenantID,
		"prompt_id":  req.PromptID,
		"text_chars": len(req.Text),
		"stateful":   req.ConversationID != "" || req.Alias != "",
	}).Info("Webhook request received")

	resp, err := h.service.HandleMessage(r.Context(), webhookService.HandleMessageRequest{
		TenantID:       req.TenantID,
		PromptID:       req.PromptID,
		Text:           req.Text,
		ConversationID: req.ConversationID,
		Alias:          req.Alias,
		Precheck:       req.Precheck,
		Threshold:      threshold,
	})
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			sendError(w, http.StatusNotFound, "Tenant, prompt or conversation not found", err)
		case errors.Is(err, webhookService.ErrConfigIncomplete):
			sendError(w, http.StatusBadRequest, "Tenant generation configuration is incomplete", err)
		default:
			logger.Log.WithError(err).Error("Webhook pipeline failed")
			sendError(w, http.StatusInternalServerError, "Internal server error", err)
		}
		return
	}

	sendJSON(w, http.StatusOK, WebhookResponse{
		Text:             resp.Text,
		ConversationID:   resp.ConversationID,
		Terminated:       resp.Terminated,
		AnsweringMachine: resp.AnsweringMachine,
	})
}
