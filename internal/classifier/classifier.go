package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is the classification verdict for one phrase.
type Result struct {
	IsAnsweringMachine bool    `json:"is_answering_machine"`
	SimilarityScore    float64 `json:"similarity_score"`
	MatchedPhrase      string  `json:"matched_phrase"`
}

// Classifier is the optional pre-check boundary: a similarity service that
// recognizes answering-machine phrases. Its failure is always non-fatal to
// the webhook path.
type Classifier interface {
	Check(ctx context.Context, phrase string, threshold float64) (*Result, error)
}

// Ensure HTTPClassifier implements Classifier
var _ Classifier = (*HTTPClassifier)(nil)

// HTTPClassifier calls the external phrase-check service over JSON HTTP.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier creates a classifier client for the given base URL.
func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type checkRequest struct {
	Phrase    string  `json:"phrase"`
	Threshold float64 `json:"threshold,omitempty"`
}

// Check sends the phrase to the classification service and returns its
// verdict.
func (c *HTTPClassifier) Check(ctx context.Context, phrase string, threshold float64) (*Result, error) {
	if c.url == "" {
		return nil, fmt.Errorf("classifier URL is not configured")
	}

	body, err := json.Marshal(checkRequest{Phrase: phrase, Threshold: threshold})
	if err != nil {
		return nil, fmt.Errorf("error serializing classifier request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/check_phrase", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error building classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(raw))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error parsing classifier response: %w", err)
	}

	return &result, nil
}
