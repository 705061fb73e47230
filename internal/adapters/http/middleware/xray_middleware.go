package middleware

import (
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/labstack/echo/v4"
	"pizza-authz/internal/domain"
)

// XRayMiddleware opens a segment per request, records the HTTP exchange on
// it and annotates the authenticated user when there is one.
func XRayMiddleware(segmentName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx, seg := xray.BeginSegment(req.Context(), segmentName)
			defer seg.Close(nil)

			seg.Lock()
			seg.GetHTTP().GetRequest().Method = req.Method
			seg.GetHTTP().GetRequest().URL = req.URL.String()
			seg.GetHTTP().GetRequest().UserAgent = req.UserAgent()
			seg.Unlock()

			c.SetRequest(req.Clone(ctx))
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			seg.Lock()
			seg.GetHTTP().GetResponse().Status = status
			seg.Fault = status >= http.StatusInternalServerError
			seg.Error = status >= http.StatusBadRequest && status < http.StatusInternalServerError
			seg.Throttle = status == http.StatusTooManyRequests
			seg.Unlock()

			if id := domain.IdentityFrom(c.Request().Context()); id != nil {
				_ = seg.AddAnnotation("user_id", id.UserID)
			}
			return nil
		}
	}
}
