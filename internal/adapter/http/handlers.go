package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"p2p-lending/internal/adapter/middleware"
	"p2p-lending/pkg/id"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func actorID(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get(middleware.HeaderActorID))
}

// pathID reads a 32-hex path parameter; ok is false once the 400 is written.
func pathID(c echo.Context, name string) (string, bool, error) {
	v := c.Param(name)
	if v == "" {
		return "", false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing " + name + " path param"})
	}
	if !id.Valid(v) {
		return "", false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name + " path param"})
	}
	return v, true, nil
}
