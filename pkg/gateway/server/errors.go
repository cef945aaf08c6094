// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xataio/vdbgateway/internal/searchstore"
	loglib "github.com/xataio/vdbgateway/pkg/log"
	"github.com/xataio/vdbgateway/pkg/vdb/schema"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []schema.FieldError `json:"fields,omitempty"`
}

// errorStatus maps the gateway errors to the HTTP status returned to the
// client.
func errorStatus(err error) int {
	var validationErr *schema.ValidationError
	var shapeErr *schema.ResponseShapeError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &shapeErr):
		return http.StatusBadGateway
	case errors.As(err, &httpErr):
		return httpErr.Code
	case searchstore.IsInvalidQuery(err):
		return http.StatusBadRequest
	case errors.Is(err, searchstore.ErrResourceNotFound):
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func (s *Server) errorResponse(c echo.Context, err error) error {
	status := errorStatus(err)
	resp := errorResponse{Error: err.Error()}

	var validationErr *schema.ValidationError
	if errors.As(err, &validationErr) {
		resp.Fields = validationErr.Fields
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(err, "request failed", loglib.Fields{
			"path":                c.Path(),
			"status":              status,
			loglib.RequestIDField: requestID(c),
		})
	}

	return c.JSON(status, resp)
}
