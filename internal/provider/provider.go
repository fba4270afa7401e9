package provider

import "context"

// PostbackSender is the outbound delivery port to the dialer system.
type PostbackSender interface {
	Send(ctx context.Context, callUUID string, payload []byte) (*PostbackResponse, error)
}

// PostbackResponse stores delivery call metadata for audit persistence.
type PostbackResponse struct {
	StatusCode int
	Body       string
}
