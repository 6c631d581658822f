package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// APISource fetches live USD/INR rates from exchangerate-api.com.
type APISource struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewAPISource builds a rate source against the pair conversion endpoint.
func NewAPISource(baseURL, apiKey string) *APISource {
	return &APISource{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type pairResponse struct {
	Result         string  `json:"result"`
	ConversionRate float64 `json:"conversion_rate"`
}

// Live fetches the current USD/INR conversion rate.
func (s *APISource) Live(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/%s/pair/USD/INR", s.baseURL, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var body pairResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if body.Result != "success" || body.ConversionRate <= 0 {
		return 0, ErrUnavailable
	}
	return Round4(body.ConversionRate), nil
}
