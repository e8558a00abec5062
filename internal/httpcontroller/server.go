// Package httpcontroller exposes the travel diary over a JSON REST API.
package httpcontroller

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/phartmann/traveldiary/internal/conf"
	"github.com/phartmann/traveldiary/internal/datastore"
	"github.com/phartmann/traveldiary/internal/diary"
	"github.com/phartmann/traveldiary/internal/logging"
)

// Server encapsulates the Echo server and its collaborators.
type Server struct {
	Echo     *echo.Echo
	DS       datastore.Interface
	Settings *conf.Settings
	Diary    *diary.Service

	webLogger *slog.Logger
}

// New initializes the HTTP server with the given datastore and diary service.
func New(settings *conf.Settings, ds datastore.Interface, diaryService *diary.Service) *Server {
	webLogger := logging.ForService("web")
	if settings.Main.Log.Enabled {
		fileLogger, _, err := logging.NewFileLogger(settings.Main.Log.Path, "web", &settings.Main.Log, slog.LevelInfo)
		if err != nil {
			webLogger.Warn("failed to initialize web file logger, using default", "error", err)
		} else {
			webLogger = fileLogger
		}
	}

	s := &Server{
		Echo:      echo.New(),
		DS:        ds,
		Settings:  settings,
		Diary:     diaryService,
		webLogger: webLogger,
	}

	s.Echo.HideBanner = true
	s.Echo.Use(middleware.Recover())
	s.initRoutes()
	return s
}

func (s *Server) initRoutes() {
	api := s.Echo.Group("/api")

	api.POST("/plotmaps", s.handlePlotMaps)
	api.POST("/route", s.handleRoute)
	api.POST("/events", s.handleEvents)
	api.POST("/travels", s.handleTravels)
	api.POST("/side-trips", s.handleSideTrips)
	api.POST("/download.kml", s.handleDownloadKML)

	api.GET("/prefetchroute", s.handlePrefetchRoute)
	api.GET("/delprefetch", s.handleDeletePrefetch)
	api.GET("/cache-status", s.handleCacheStatus)
	api.GET("/devices", s.handleDevices)
	api.GET("/geofences", s.handleGeofences)

	api.GET("/travel-patches", s.handleListTravelPatches)
	api.POST("/travel-patches", s.handleSaveTravelPatch)
	api.DELETE("/travel-patches/:id", s.handleDeleteTravelPatch)

	api.GET("/standstill-adjustments", s.handleListAdjustments)
	api.POST("/standstill-adjustments", s.handleSaveAdjustment)
	api.DELETE("/standstill-adjustments/:id", s.handleDeleteAdjustment)

	api.GET("/manual-pois", s.handleListPOIs)
	api.POST("/manual-pois", s.handleSavePOI)
	api.DELETE("/manual-pois/:id", s.handleDeletePOI)

	api.GET("/settings", s.handleGetSettings)
	api.POST("/settings", s.handleSaveSettings)
}

// Start begins listening and serving HTTP requests.
func (s *Server) Start() error {
	s.webLogger.Info("starting web server", "port", s.Settings.WebServer.Port)
	return s.Echo.Start(":" + s.Settings.WebServer.Port)
}

// ErrorResponse is the JSON envelope for failed requests.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// HandleError logs an error with a correlation id and sends the JSON error
// envelope to the client.
func (s *Server) HandleError(c echo.Context, err error, message string, code int) error {
	correlationID := uuid.NewString()[:8]

	s.webLogger.Error("request failed",
		"correlation_id", correlationID,
		"path", c.Request().URL.Path,
		"code", code,
		"message", message,
		"error", err)

	return c.JSON(code, &ErrorResponse{
		Error:         err.Error(),
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	})
}

// timeWindowRequest is the common body of the map and report endpoints.
type timeWindowRequest struct {
	DeviceID int    `json:"deviceId"`
	From     string `json:"from"`
	To       string `json:"to"`
	Name     string `json:"name,omitempty"`
}

// parseWindow validates the request body shared by the analysis endpoints.
// Missing parameters are rejected before any analysis runs.
func (s *Server) parseWindow(c echo.Context) (*timeWindowRequest, time.Time, time.Time, error) {
	var req timeWindowRequest
	if err := c.Bind(&req); err != nil {
		return nil, time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.DeviceID == 0 || req.From == "" || req.To == "" {
		return nil, time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "missing required parameters: deviceId, from, to")
	}

	from, err := parseTime(req.From)
	if err != nil {
		return nil, time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid from date: %s", req.From))
	}
	to, err := parseTime(req.To)
	if err != nil {
		return nil, time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid to date: %s", req.To))
	}
	return &req, from, to, nil
}

// parseTime accepts RFC 3339 as well as the "2006-01-02 15:04" shorthand
// the map UI sends.
func parseTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %s", value)
}
