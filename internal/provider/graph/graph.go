package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/shineum/simplemail-relay/internal/email"
)

// graphScope is the client-credentials scope for application permissions.
const graphScope = "https://graph.microsoft.com/.default"

const requestTimeout = 30 * time.Second

// Config holds the configuration for creating a Provider.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// Sender is the mailbox messages are sent from.
	Sender string
}

// Provider sends mail via the Microsoft Graph API using OAuth2 client
// credentials. Tokens are cached and refreshed by the oauth2 transport.
type Provider struct {
	sender     string
	graphURL   string
	httpClient *http.Client
}

// New creates a new Provider with the given configuration.
func New(cfg Config) *Provider {
	tokenURL := fmt.Sprintf(
		"https://login.microsoftonline.com/%s/oauth2/v2.0/token",
		url.PathEscape(cfg.TenantID),
	)
	graphURL := fmt.Sprintf(
		"https://graph.microsoft.com/v1.0/users/%s/sendMail",
		url.PathEscape(cfg.Sender),
	)

	return newWithOverrides(cfg, graphURL, tokenURL, &http.Client{Timeout: requestTimeout})
}

// newWithOverrides creates a Provider with custom URLs and base HTTP client,
// used for testing.
func newWithOverrides(cfg Config, graphURL, tokenURL string, base *http.Client) *Provider {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{graphScope},
	}

	// Token requests and API calls both go through base.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = base.Timeout

	return &Provider{
		sender:     cfg.Sender,
		graphURL:   graphURL,
		httpClient: client,
	}
}

// Send delivers the request via a single sendMail call.
func (g *Provider) Send(ctx context.Context, req *email.SendRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("graph: %w", err)
	}

	bodyJSON, err := json.Marshal(buildSendMailRequest(g.sender, req))
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.graphURL, bytes.NewReader(bodyJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("Graph API request failed: %w", err)
	}
	defer resp.Body.Close()

	// HTTP 202 Accepted is success for sendMail
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)

	var graphErrResp graphErrorResponse
	if jsonErr := json.Unmarshal(body, &graphErrResp); jsonErr == nil && graphErrResp.Error.Message != "" {
		return &SendError{StatusCode: resp.StatusCode, Code: graphErrResp.Error.Code, Message: graphErrResp.Error.Message}
	}
	return &SendError{StatusCode: resp.StatusCode, Message: string(body)}
}

// Name returns the provider name.
func (g *Provider) Name() string {
	return "msgraph"
}

// SendError is a non-success response from the sendMail endpoint.
type SendError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *SendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("Graph API error (HTTP %d, %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("Graph API error (HTTP %d): %s", e.StatusCode, e.Message)
}
