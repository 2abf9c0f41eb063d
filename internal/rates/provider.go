package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// HTTPProvider talks to the exchangerate-api.com v6 "latest" endpoint.
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: FetchTimeout},
	}
}

type latestResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (p *HTTPProvider) Latest(ctx context.Context, base string) (map[string]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v6/%s/latest/%s", p.BaseURL, url.PathEscape(p.APIKey), url.PathEscape(base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, p.redact(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, p.redact(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned %d", resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rate response: %w", err)
	}
	if body.Result != "" && body.Result != "success" {
		return nil, fmt.Errorf("rate provider error: %s", body.ErrorType)
	}
	if len(body.ConversionRates) == 0 {
		return nil, errors.New("invalid response format from exchange rate API")
	}
	return body.ConversionRates, nil
}

// redact strips the API key, which is part of the request path.
func (p *HTTPProvider) redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && p.APIKey != "" {
		ue.URL = strings.ReplaceAll(ue.URL, p.APIKey, "***")
	}
	return err
}
