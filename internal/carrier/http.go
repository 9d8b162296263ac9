package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPAdapter talks to a carrier's JSON-over-HTTP rating API. The endpoint
// layout (GET /v1/health, POST /v1/rates) matches the aggregator gateways the
// providers are configured against.
type HTTPAdapter struct {
	name   string
	client *http.Client
}

// NewHTTPAdapter builds an adapter for the named carrier. A nil client gets a
// sane default timeout.
func NewHTTPAdapter(name string, client *http.Client) *HTTPAdapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPAdapter{name: name, client: client}
}

func (a *HTTPAdapter) TestConnection(ctx context.Context, creds Credentials) (ConnectionStatus, error) {
	if creds.APIKey == "" || creds.BaseURL == "" {
		return ConnectionStatus{}, &ProviderError{Provider: a.name, Message: "missing credentials", Err: ErrMissingCredentials}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, creds.BaseURL+"/v1/health", nil)
	if err != nil {
		return ConnectionStatus{}, &ProviderError{Provider: a.name, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return ConnectionStatus{}, &ProviderError{Provider: a.name, Message: "connection failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ConnectionStatus{
			Success: false,
			Message: fmt.Sprintf("carrier responded with status %d", resp.StatusCode),
		}, nil
	}

	return ConnectionStatus{Success: true, Message: "connection ok"}, nil
}

func (a *HTTPAdapter) GetRates(ctx context.Context, creds Credentials, rateReq RateRequest) ([]Rate, error) {
	if creds.APIKey == "" || creds.BaseURL == "" {
		return nil, &ProviderError{Provider: a.name, Message: "missing credentials", Err: ErrMissingCredentials}
	}
	if len(rateReq.Packages) == 0 {
		return nil, &ProviderError{Provider: a.name, Message: "rate request has no packages"}
	}

	body, err := json.Marshal(rateReq)
	if err != nil {
		return nil, &ProviderError{Provider: a.name, Message: "failed to encode rate request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.BaseURL+"/v1/rates", bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: a.name, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: a.name, Message: "rate request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: a.name, Message: fmt.Sprintf("carrier responded with status %d", resp.StatusCode)}
	}

	var payload struct {
		Rates []Rate `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &ProviderError{Provider: a.name, Message: "failed to decode rate response", Err: err}
	}

	for i := range payload.Rates {
		if payload.Rates[i].Provider == "" {
			payload.Rates[i].Provider = a.name
		}
	}

	return payload.Rates, nil
}
