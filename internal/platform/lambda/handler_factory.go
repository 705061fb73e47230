package lambda

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	echoadapter "github.com/awslabs/aws-lambda-go-api-proxy/echo"
	"github.com/labstack/echo/v4"
)

type Handler func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// NewLambdaHandler proxies API Gateway HTTP API events into e. The Lambda
// request id becomes the X-Request-Id so echo's RequestID middleware and
// the logs agree with CloudWatch.
func NewLambdaHandler(e *echo.Echo) Handler {
	adapter := echoadapter.NewV2(e)
	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
			if req.Headers == nil {
				req.Headers = map[string]string{}
			}
			if _, set := req.Headers["x-request-id"]; !set {
				req.Headers["x-request-id"] = lc.AwsRequestID
			}
		}
		return adapter.ProxyWithContext(ctx, req)
	}
}
