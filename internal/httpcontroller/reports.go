package httpcontroller

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/phartmann/traveldiary/internal/travel"
)

func (s *Server) handleEvents(c echo.Context) error {
	req, from, to, err := s.parseWindow(c)
	if err != nil {
		return err
	}

	events, err := s.Diary.GetEvents(c.Request().Context(), req.DeviceID, from, to)
	if err != nil {
		return s.HandleError(c, err, "Failed to fetch events", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) handleTravels(c echo.Context) error {
	req, from, to, err := s.parseWindow(c)
	if err != nil {
		return err
	}

	travels, err := s.Diary.GetTravels(c.Request().Context(), req.DeviceID, from, to)
	if err != nil {
		return s.HandleError(c, err, "Failed to analyze travels", http.StatusInternalServerError)
	}
	if travels == nil {
		travels = []travel.Travel{}
	}
	return c.JSON(http.StatusOK, travels)
}

// deviceIDParam returns the deviceId query parameter, falling back to the
// configured primary device.
func (s *Server) deviceIDParam(c echo.Context) (int, error) {
	raw := c.QueryParam("deviceId")
	if raw == "" {
		return s.Settings.Traccar.DeviceID, nil
	}
	deviceID, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid deviceId")
	}
	return deviceID, nil
}

func (s *Server) handlePrefetchRoute(c echo.Context) error {
	deviceID, err := s.deviceIDParam(c)
	if err != nil {
		return err
	}

	result, err := s.Diary.Prefetch(c.Request().Context(), deviceID)
	if err != nil {
		return s.HandleError(c, err, "Prefetch failed", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleDeletePrefetch(c echo.Context) error {
	deviceID, err := s.deviceIDParam(c)
	if err != nil {
		return err
	}

	if err := s.Diary.ClearCache(deviceID); err != nil {
		return s.HandleError(c, err, "Failed to clear cache", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "cache cleared",
	})
}

func (s *Server) handleCacheStatus(c echo.Context) error {
	deviceID, err := s.deviceIDParam(c)
	if err != nil {
		return err
	}

	status, err := s.Diary.GetCacheStatus(deviceID)
	if err != nil {
		return s.HandleError(c, err, "Failed to read cache status", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) handleDevices(c echo.Context) error {
	devices, err := s.Diary.GetDevices(c.Request().Context())
	if err != nil {
		return s.HandleError(c, err, "Failed to fetch devices", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, devices)
}

func (s *Server) handleGeofences(c echo.Context) error {
	geofences, err := s.Diary.GetGeofences(c.Request().Context())
	if err != nil {
		return s.HandleError(c, err, "Failed to fetch geofences", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, geofences)
}
