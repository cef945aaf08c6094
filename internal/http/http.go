// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"
)

// Server is the lifecycle of an HTTP server bound on Start, as implemented
// by echo.
type Server interface {
	Start(address string) error
	Shutdown(context.Context) error
}
