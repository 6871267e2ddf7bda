package ipintel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/contalabs/accounts-api/internal/core/port"
	"github.com/contalabs/accounts-api/internal/infra/config"
)

const defaultTimeout = 5 * time.Second

// Client queries an ipify-compatible IP-echo endpoint and a
// proxycheck-compatible reputation endpoint. Both calls carry bounded
// timeouts so a slow upstream can never stall a caller.
type Client struct {
	echoURL    string
	proxyURL   string
	httpClient *http.Client
}

// NewClient builds a client from settings, falling back to sane defaults.
func NewClient(cfg config.IPIntelSettings) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		echoURL:    cfg.EchoURL,
		proxyURL:   cfg.ProxyURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type echoResponse struct {
	IP string `json:"ip"`
}

// PublicIP resolves the service's public IP via the IP-echo endpoint.
func (c *Client) PublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.echoURL+"?format=json", nil)
	if err != nil {
		return "", fmt.Errorf("build ip echo request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("query ip echo service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ip echo service returned status %d", resp.StatusCode)
	}

	var payload echoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode ip echo response: %w", err)
	}

	if payload.IP == "" {
		return "", fmt.Errorf("ip echo service returned empty ip")
	}

	return payload.IP, nil
}

type proxyVerdict struct {
	Proxy string `json:"proxy"`
}

// IsProxy reports whether the reputation service flags the IP as a proxy or
// VPN. The response keys the verdict by the queried IP.
func (c *Client) IsProxy(ctx context.Context, ip string) (bool, error) {
	url := fmt.Sprintf("%s/%s?vpn=1&asn=1", c.proxyURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build proxy check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("query proxy check service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("proxy check service returned status %d", resp.StatusCode)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("decode proxy check response: %w", err)
	}

	raw, ok := payload[ip]
	if !ok {
		return false, fmt.Errorf("proxy check response missing verdict for %s", ip)
	}

	var verdict proxyVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return false, fmt.Errorf("decode proxy verdict: %w", err)
	}

	return verdict.Proxy == "yes", nil
}

var _ port.IPIntel = (*Client)(nil)
