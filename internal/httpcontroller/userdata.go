package httpcontroller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/phartmann/traveldiary/internal/datastore"
)

func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func (s *Server) handleListTravelPatches(c echo.Context) error {
	patches, err := s.DS.ListTravelPatches()
	if err != nil {
		return s.HandleError(c, err, "Failed to list travel patches", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, patches)
}

func (s *Server) handleSaveTravelPatch(c echo.Context) error {
	var req struct {
		AddressKey string `json:"addressKey"`
		Title      string `json:"title"`
		From       string `json:"from"`
		To         string `json:"to"`
		Exclude    bool   `json:"exclude"`
	}
	if err := c.Bind(&req); err != nil || req.AddressKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing required parameter: addressKey")
	}

	patch := &datastore.TravelPatch{
		AddressKey: req.AddressKey,
		Title:      req.Title,
		Exclude:    req.Exclude,
	}
	if req.From != "" {
		from, err := parseTime(req.From)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
		patch.From = &from
	}
	if req.To != "" {
		to, err := parseTime(req.To)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
		patch.To = &to
	}

	if err := s.DS.SaveTravelPatch(patch); err != nil {
		return s.HandleError(c, err, "Failed to save travel patch", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteTravelPatch(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := s.DS.DeleteTravelPatch(id); err != nil {
		return s.HandleError(c, err, "Failed to delete travel patch", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListAdjustments(c echo.Context) error {
	adjustments, err := s.DS.ListStandstillAdjustments()
	if err != nil {
		return s.HandleError(c, err, "Failed to list standstill adjustments", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, adjustments)
}

func (s *Server) handleSaveAdjustment(c echo.Context) error {
	var req struct {
		StandstillKey  string `json:"standstillKey"`
		StartOffsetMin int    `json:"startOffsetMin"`
		EndOffsetMin   int    `json:"endOffsetMin"`
	}
	if err := c.Bind(&req); err != nil || req.StandstillKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing required parameter: standstillKey")
	}

	adj := &datastore.StandstillAdjustment{
		StandstillKey:  req.StandstillKey,
		StartOffsetMin: req.StartOffsetMin,
		EndOffsetMin:   req.EndOffsetMin,
	}
	if err := s.DS.SaveStandstillAdjustment(adj); err != nil {
		return s.HandleError(c, err, "Failed to save standstill adjustment", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteAdjustment(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := s.DS.DeleteStandstillAdjustment(id); err != nil {
		return s.HandleError(c, err, "Failed to delete standstill adjustment", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListPOIs(c echo.Context) error {
	deviceID, err := s.deviceIDParam(c)
	if err != nil {
		return err
	}
	pois, err := s.DS.GetManualPOIs(deviceID)
	if err != nil {
		return s.HandleError(c, err, "Failed to list POIs", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, pois)
}

func (s *Server) handleSavePOI(c echo.Context) error {
	var req struct {
		Key       string  `json:"key"`
		DeviceID  int     `json:"deviceId"`
		Lat       float64 `json:"lat"`
		Lng       float64 `json:"lng"`
		Timestamp string  `json:"timestamp"`
		Address   string  `json:"address"`
		Country   string  `json:"country"`
	}
	if err := c.Bind(&req); err != nil || req.DeviceID == 0 || req.Timestamp == "" || req.Lat == 0 || req.Lng == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "missing required parameters: lat, lng, timestamp, deviceId")
	}

	timestamp, err := parseTime(req.Timestamp)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid timestamp")
	}

	key := req.Key
	if key == "" {
		key = uuid.NewString()
	}

	poi := &datastore.ManualPOI{
		PoiKey:    key,
		DeviceID:  req.DeviceID,
		Latitude:  req.Lat,
		Longitude: req.Lng,
		Timestamp: timestamp.UTC().Truncate(time.Second),
		Address:   req.Address,
		Country:   req.Country,
	}
	if err := s.DS.SaveManualPOI(poi); err != nil {
		return s.HandleError(c, err, "Failed to save POI", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"poiId":   poi.ID,
	})
}

func (s *Server) handleDeletePOI(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := s.DS.DeleteManualPOI(id); err != nil {
		return s.HandleError(c, err, "Failed to delete POI", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
