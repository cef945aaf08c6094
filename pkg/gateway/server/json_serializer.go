// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xataio/vdbgateway/internal/json"
)

// jsonSerializer renders the responses with the same JSON library used for
// the engine payloads.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i any, _ string) error {
	return json.NewEncoder(c.Response()).Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("decoding request body: %v", err)).SetInternal(err)
	}
	return nil
}
