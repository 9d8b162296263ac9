package carrier

import "context"

// MockAdapter is a configurable in-memory Adapter for tests and local
// development environments without carrier credentials.
type MockAdapter struct {
	Rates           []Rate
	RatesErr        error
	ConnErr         error
	LastRateRequest *RateRequest
}

func NewMockAdapter(rates ...Rate) *MockAdapter {
	return &MockAdapter{Rates: rates}
}

func (m *MockAdapter) TestConnection(ctx context.Context, creds Credentials) (ConnectionStatus, error) {
	if m.ConnErr != nil {
		return ConnectionStatus{}, m.ConnErr
	}
	if creds.APIKey == "" {
		return ConnectionStatus{Success: false, Message: "missing api key"}, nil
	}
	return ConnectionStatus{Success: true, Message: "connection ok"}, nil
}

func (m *MockAdapter) GetRates(ctx context.Context, creds Credentials, req RateRequest) ([]Rate, error) {
	m.LastRateRequest = &req
	if m.RatesErr != nil {
		return nil, m.RatesErr
	}
	return m.Rates, nil
}
