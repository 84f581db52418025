// Package poller implements the client-side contract for observing a
// receipt's eventual extraction result: fetch at a fixed interval, bounded
// attempts, stop early once data appears.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"spendscan/internal/dto"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultAttempts = 10
)

type Poller struct {
	baseURL  string
	client   *http.Client
	interval time.Duration
	attempts int
}

// New creates a poller against a server base URL. Zero interval or attempts
// fall back to the defaults.
func New(baseURL string, interval time.Duration, attempts int) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	return &Poller{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
		interval: interval,
		attempts: attempts,
	}
}

// Wait polls the receipt until its data payload appears or the attempt
// budget runs out. Exhaustion yields an empty ReceiptData and no error, so
// callers cannot distinguish slow processing from failure this way. Fetch
// errors consume an attempt.
func (p *Poller) Wait(ctx context.Context, receiptID string) (*dto.ReceiptData, error) {
	for attempt := 0; attempt < p.attempts; attempt++ {
		if data := p.fetch(ctx, receiptID); data != nil {
			return data, nil
		}

		if attempt == p.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.interval):
		}
	}

	return &dto.ReceiptData{}, nil
}

func (p *Poller) fetch(ctx context.Context, receiptID string) *dto.ReceiptData {
	url := fmt.Sprintf("%s/api/receipt/%s", p.baseURL, receiptID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var status dto.ReceiptStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil
	}
	return status.Data
}
