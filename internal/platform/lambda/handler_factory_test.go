package lambda

import (
	"context"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func menuRequest() events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: "/api/order/menu",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodGet, Path: "/api/order/menu"},
		},
	}
}

func TestNewLambdaHandler_ProxiesToEcho(t *testing.T) {
	e := echo.New()
	e.GET("/api/order/menu", func(c echo.Context) error {
		return c.JSON(http.StatusOK, []string{"Veggie"})
	})

	resp, err := NewLambdaHandler(e)(context.Background(), menuRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, "Veggie")
}

func TestNewLambdaHandler_UsesLambdaRequestID(t *testing.T) {
	e := echo.New()
	e.Use(middleware.RequestID())
	e.GET("/api/order/menu", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-123"})

	resp, err := NewLambdaHandler(e)(ctx, menuRequest())
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Headers[echo.HeaderXRequestID])
}
