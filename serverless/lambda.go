// Package serverless runs the echo server behind API Gateway on AWS Lambda.
package serverless

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	echoadapter "github.com/awslabs/aws-lambda-go-api-proxy/echo"
	"github.com/labstack/echo/v4"
)

// PayloadFormatV2 is the version field of HTTP API and function URL events
const PayloadFormatV2 = "2.0"

// Handler proxies API Gateway events to echo. REST API events and HTTP API
// payload format 1.0 use the v1 adapter, format 2.0 events the v2 adapter.
type Handler struct {
	v1 *echoadapter.EchoLambda
	v2 *echoadapter.EchoLambdaV2
}

// NewHandler creates a Handler serving e
func NewHandler(e *echo.Echo) *Handler {
	return &Handler{
		v1: echoadapter.New(e),
		v2: echoadapter.NewV2(e),
	}
}

// Invoke is the Lambda entrypoint. It picks the adapter from the event's
// payload format version.
func (h *Handler) Invoke(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var envelope struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}

	if envelope.Version == PayloadFormatV2 {
		var request events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(payload, &request); err != nil {
			return nil, fmt.Errorf("failed to decode http api event: %w", err)
		}
		return h.v2.ProxyWithContext(ctx, request)
	}

	var request events.APIGatewayProxyRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		return nil, fmt.Errorf("failed to decode proxy event: %w", err)
	}
	return h.v1.ProxyWithContext(ctx, request)
}
