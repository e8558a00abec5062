package httpcontroller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/phartmann/traveldiary/internal/conf"
)

func (s *Server) handleGetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"settings": s.Settings,
	})
}

// handleSaveSettings validates and applies a settings update, then writes
// it back to the config file.
func (s *Server) handleSaveSettings(c echo.Context) error {
	updated := *s.Settings
	if err := c.Bind(&updated); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid settings body")
	}

	if err := conf.ValidateSettings(&updated); err != nil {
		return s.HandleError(c, err, "Settings validation failed", http.StatusBadRequest)
	}

	conf.UpdateSettings(&updated)
	*s.Settings = updated

	if err := conf.SaveSettings(); err != nil {
		return s.HandleError(c, err, "Failed to save settings", http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
