package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Middleware records a duration observation for every HTTP request,
// labelled by method, route pattern and status.
func Middleware(m *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			m.RecordHTTPRequest(
				c.Request().Method,
				routeLabel(c),
				strconv.Itoa(c.Response().Status),
				time.Since(start).Seconds(),
			)
			return err
		}
	}
}

// routeLabel uses the matched route pattern so query values and scheme
// names don't explode label cardinality. Unmatched requests (404s) fall
// back to the raw path.
func routeLabel(c echo.Context) string {
	if path := c.Path(); path != "" {
		return path
	}
	return c.Request().URL.Path
}
