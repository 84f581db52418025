package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"spendscan/pkg/config"

	"go.uber.org/zap"
)

// Entity is one named entity recognized by the token-classification model.
// Start and End are byte offsets into the submitted input.
type Entity struct {
	EntityGroup string  `json:"entity_group"`
	Score       float64 `json:"score"`
	Word        string  `json:"word"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
}

// EntityRecognizer is the narrow view of the NER capability the merchant
// resolver needs.
type EntityRecognizer interface {
	TokenClassification(ctx context.Context, input string) ([]Entity, error)
}

// HFClient calls the Hugging Face Inference API token-classification
// endpoint. It is stateless and safe for concurrent use; construct one at
// startup and share it.
type HFClient struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

func NewHFClient(cfg *config.HuggingFaceConfig, logger *zap.Logger) *HFClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HFClient{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type tokenClassificationRequest struct {
	Inputs  string                 `json:"inputs"`
	Options map[string]interface{} `json:"options,omitempty"`
}

func (c *HFClient) TokenClassification(ctx context.Context, input string) ([]Entity, error) {
	reqBody := tokenClassificationRequest{
		Inputs:  input,
		Options: map[string]interface{}{"wait_for_model": true},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling inference API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference API error (status %d): %s", resp.StatusCode, string(body))
	}

	// The API answers with a flat entity list, or with one list per input
	// when the model serves batched requests.
	var entities []Entity
	if err := json.Unmarshal(body, &entities); err == nil {
		return entities, nil
	}

	var batched [][]Entity
	if err := json.Unmarshal(body, &batched); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(batched) == 0 {
		return nil, nil
	}
	return batched[0], nil
}
