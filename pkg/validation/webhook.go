package validation

import (
	"errors"
	"fmt"
)

// WebhookRequestValidator validates inbound webhook requests before any
// store or cache access is attempted.
type WebhookRequestValidator struct{}

// NewWebhookRequestValidator creates a new WebhookRequestValidator
func NewWebhookRequestValidator() *WebhookRequestValidator {
	return &WebhookRequestValidator{}
}

// ValidateTenantID validates the tenant identifier
func (v *WebhookRequestValidator) ValidateTenantID(tenantID string) error {
	if tenantID == "" {
		return errors.New("tenant_id is required")
	}
	return nil
}

// ValidatePromptID validates the prompt identifier
func (v *WebhookRequestValidator) ValidatePromptID(promptID string) error {
	if promptID == "" {
		return errors.New("prompt_id is required")
	}
	return nil
}

// ValidateText validates the message text
func (v *WebhookRequestValidator) ValidateText(text string) error {
	if text == "" {
		return errors.New("text cannot be empty")
	}
	return nil
}

// ValidateThreshold validates the optional pre-check similarity threshold
func (v *WebhookRequestValidator) ValidateThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %.2f", threshold)
	}
	return nil
}

// ValidateWebhookRequest validates all webhook request fields at once
func (v *WebhookRequestValidator) ValidateWebhookRequest(tenantID, promptID, text string, threshold float64) error {
	if err := v.ValidateTenantID(tenantID); err != nil {
		return err
	}
	if err := v.ValidatePromptID(promptID); err != nil {
		return err
	}
	if err := v.ValidateText(text); err != nil {
		return err
	}
	return v.ValidateThreshold(threshold)
}

// TenantRequestValidator validates tenant write requests
type TenantRequestValidator struct{}

// NewTenantRequestValidator creates a new TenantRequestValidator
func NewTenantRequestValidator() *TenantRequestValidator {
	return &TenantRequestValidator{}
}

// ValidateName validates the tenant name
func (v *TenantRequestValidator) ValidateName(name string) error {
	if name == "" {
		return errors.New("name is required")
	}
	return nil
}

// ValidateTemperature validates the sampling temperature
func (v *TenantRequestValidator) ValidateTemperature(temperature float64) error {
	if temperature < 0 || temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %.2f", temperature)
	}
	return nil
}

// PromptRequestValidator validates prompt write requests
type PromptRequestValidator struct{}

// NewPromptRequestValidator creates a new PromptRequestValidator
func NewPromptRequestValidator() *PromptRequestValidator {
	return &PromptRequestValidator{}
}

// ValidateInstruction validates the instruction text
func (v *PromptRequestValidator) ValidateInstruction(instruction string) error {
	if instruction == "" {
		return errors.New("instruction is required")
	}
	return nil
}

// ValidateName validates the prompt name
func (v *PromptRequestValidator) ValidateName(name string) error {
	if name == "" {
		return errors.New("name is required")
	}
	return nil
}
