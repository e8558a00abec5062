package httpcontroller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/phartmann/traveldiary/internal/analysis"
	"github.com/phartmann/traveldiary/internal/datastore"
	"github.com/phartmann/traveldiary/internal/diary"
	"github.com/phartmann/traveldiary/internal/geo"
	"github.com/phartmann/traveldiary/internal/kml"
)

// MapMarker is a standstill or POI rendered on the map.
type MapMarker struct {
	Key     string    `json:"key"`
	Lat     float64   `json:"lat"`
	Lng     float64   `json:"lng"`
	Title   string    `json:"title"`
	Von     time.Time `json:"von"`
	Bis     time.Time `json:"bis"`
	Period  int       `json:"period"`
	Country string    `json:"country"`
	Address string    `json:"address"`
	IsPOI   bool      `json:"isPOI,omitempty"`
	PoiID   uint      `json:"poiId,omitempty"`
}

// PlotMapsResponse is everything the map view needs for one window.
type PlotMapsResponse struct {
	Bounds    geo.Bounds     `json:"bounds"`
	Center    geo.Center     `json:"center"`
	Zoom      float64        `json:"zoom"`
	Distance  float64        `json:"distance"`
	Polygone  []diary.LatLng `json:"polygone"`
	Locations []MapMarker    `json:"locations"`
}

func (s *Server) handlePlotMaps(c echo.Context) error {
	req, from, to, err := s.parseWindow(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	route, err := s.Diary.GetRouteData(ctx, req.DeviceID, from, to)
	if err != nil {
		return s.HandleError(c, err, "Failed to load route data", http.StatusInternalServerError)
	}

	if len(route) == 0 {
		return c.JSON(http.StatusOK, &PlotMapsResponse{
			Zoom:      10,
			Polygone:  []diary.LatLng{},
			Locations: []MapMarker{},
		})
	}

	points := make([]geo.Point, len(route))
	polygone := make([]diary.LatLng, len(route))
	for i, p := range route {
		points[i] = geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}
		polygone[i] = diary.LatLng{Lat: p.Latitude, Lng: p.Longitude}
	}
	bounds := geo.BoundsOf(points)

	standstills, err := s.Diary.GetStandstills(ctx, req.DeviceID)
	if err != nil {
		return s.HandleError(c, err, "Failed to load standstills", http.StatusInternalServerError)
	}
	standstills = analysis.Clean(standstills, from, to)

	adjustments, err := s.DS.GetStandstillAdjustments()
	if err != nil {
		return s.HandleError(c, err, "Failed to load standstill adjustments", http.StatusInternalServerError)
	}

	locations := make([]MapMarker, 0, len(standstills))
	for _, stand := range standstills {
		von := stand.Von
		bis := stand.Bis
		if adj, ok := adjustments[stand.Key]; ok {
			von = von.Add(time.Duration(adj.StartOffsetMin) * time.Minute)
			bis = bis.Add(time.Duration(adj.EndOffsetMin) * time.Minute)
		}
		country := analysis.TranslateCountry(stand.Country)
		locations = append(locations, MapMarker{
			Key:     stand.Key,
			Lat:     stand.Latitude,
			Lng:     stand.Longitude,
			Title:   country,
			Von:     von,
			Bis:     bis,
			Period:  stand.Period,
			Country: country,
			Address: stand.Address,
		})
	}

	pois, err := s.DS.GetManualPOIs(req.DeviceID)
	if err != nil {
		return s.HandleError(c, err, "Failed to load POIs", http.StatusInternalServerError)
	}
	for _, poi := range pois {
		locations = append(locations, MapMarker{
			Key:     poi.PoiKey,
			Lat:     poi.Latitude,
			Lng:     poi.Longitude,
			Title:   poi.Address,
			Von:     poi.Timestamp,
			Bis:     poi.Timestamp,
			Country: poi.Country,
			Address: poi.Address,
			IsPOI:   true,
			PoiID:   poi.ID,
		})
	}

	return c.JSON(http.StatusOK, &PlotMapsResponse{
		Bounds:    bounds,
		Center:    geo.CenterOf(bounds),
		Zoom:      geo.ZoomFor(bounds),
		Distance:  route[len(route)-1].TotalDistance,
		Polygone:  polygone,
		Locations: locations,
	})
}

func (s *Server) handleRoute(c echo.Context) error {
	req, from, to, err := s.parseWindow(c)
	if err != nil {
		return err
	}

	route, err := s.Diary.GetRouteData(c.Request().Context(), req.DeviceID, from, to)
	if err != nil {
		return s.HandleError(c, err, "Failed to load route data", http.StatusInternalServerError)
	}
	if route == nil {
		route = []datastore.RoutePosition{}
	}
	return c.JSON(http.StatusOK, route)
}

func (s *Server) handleSideTrips(c echo.Context) error {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := c.Bind(&req); err != nil || req.From == "" || req.To == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing required parameters: from, to")
	}
	from, err := parseTime(req.From)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid from date: %s", req.From))
	}
	to, err := parseTime(req.To)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid to date: %s", req.To))
	}

	polylines, err := s.Diary.SideTrips(c.Request().Context(), from, to)
	if err != nil {
		return s.HandleError(c, err, "Failed to fetch side trips", http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"polylines": polylines,
	})
}

func (s *Server) handleDownloadKML(c echo.Context) error {
	req, from, to, err := s.parseWindow(c)
	if err != nil {
		return err
	}

	route, err := s.Diary.GetRouteData(c.Request().Context(), req.DeviceID, from, to)
	if err != nil {
		return s.HandleError(c, err, "Failed to load route data", http.StatusInternalServerError)
	}
	if len(route) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no route data found for specified period")
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Route_%s_%s", req.From, req.To)
	}

	document := kml.Generate(route, kml.Options{Name: name})

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name+".kml"))
	return c.Blob(http.StatusOK, "application/vnd.google-earth.kml+xml", []byte(document))
}
