package utils

import (
	"github.com/labstack/echo/v4"
	"github.com/srand/solvelink/pkg/log"
)

func HttpLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		log.Tracef("%4s %s %v", c.Request().Method, c.Request().URL, c.Response().Status)
		return err
	}
}

// Echo error handler writing errors as plain text with a status derived
// from the error.
func HttpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := HttpStatus(err)
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
	}

	if err := c.String(code, err.Error()); err != nil {
		log.Debug("Failed to write error response:", err)
	}
}
