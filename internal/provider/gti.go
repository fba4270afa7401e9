package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// The dialer contract allows 5 seconds per delivery attempt; anything slower
// is treated as a transient failure and retried by the dispatcher.
const defaultPostbackTimeout = 5 * time.Second

// GTIClient posts dispose/progress payloads to the dialer's postback
// endpoint at ${baseURL}/${callUuid}. Retries are the dispatcher's job, so
// the HTTP client itself never retries.
type GTIClient struct {
	client     *resty.Client
	baseURL    string
	authHeader string
}

func NewGTIClient(baseURL, authHeader string) *GTIClient {
	client := resty.New()
	client.SetTimeout(defaultPostbackTimeout)
	client.SetRetryCount(0)

	return NewGTIClientWithClient(baseURL, authHeader, client)
}

func NewGTIClientWithClient(baseURL, authHeader string, client *resty.Client) *GTIClient {
	if client == nil {
		client = resty.New()
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultPostbackTimeout)
	}
	client.SetRetryCount(0)

	return &GTIClient{
		client:     client,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		authHeader: strings.TrimSpace(authHeader),
	}
}

// Configured reports whether both the postback URL and the auth header are
// present. Send on an unconfigured client fails permanently without any
// HTTP call.
func (c *GTIClient) Configured() bool {
	return c != nil && c.baseURL != "" && c.authHeader != ""
}

func (c *GTIClient) Send(ctx context.Context, callUUID string, payload []byte) (*PostbackResponse, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("postback client is not initialized")
	}
	if strings.TrimSpace(callUUID) == "" {
		return nil, fmt.Errorf("call uuid is required")
	}
	if !c.Configured() {
		return nil, &PostbackError{
			Message:   "postback url or auth header is not configured",
			Transient: false,
		}
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", c.authHeader).
		SetBody(payload).
		Post(c.baseURL + "/" + callUUID)
	if err != nil {
		return nil, &PostbackError{
			Message:   "postback request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &PostbackError{
			Message:   "postback returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &PostbackResponse{
			StatusCode: statusCode,
			Body:       responseBody,
		}, nil
	}

	return nil, &PostbackError{
		StatusCode: statusCode,
		Message:    postbackErrorMessage(statusCode, responseBody),
		Transient:  true,
	}
}

func postbackErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("dialer returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}
