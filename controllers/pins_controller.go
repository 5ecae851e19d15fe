package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/BeckettFrey/RodRoyale/models"
	httpctx "github.com/BeckettFrey/RodRoyale/utils/httpctx"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type pinRequest struct {
	CatchID    string   `json:"catch_id"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	Visibility string   `json:"visibility"`
}

// CreatePin drops a map pin for one of the authenticated user's catches.
// A catch can carry at most one pin.
func (server *Server) CreatePin(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	catch, err := resolveCatchByIdentifier(server.DB, req.CatchID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Catch not found"})
		return
	}
	if catch.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only pin your own catches"})
		return
	}

	var existing models.Pin
	if err := server.DB.Where("catch_id = ?", catch.ID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Catch already has a pin"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving pin"})
		return
	}

	pin := models.Pin{
		UserID:     userID,
		CatchID:    catch.ID,
		Lat:        catch.Lat,
		Lng:        catch.Lng,
		Visibility: req.Visibility,
	}
	if pin.Visibility == "" {
		pin.Visibility = models.PinVisibilityPublic
	}
	if req.Lat != nil {
		pin.Lat = *req.Lat
	}
	if req.Lng != nil {
		pin.Lng = *req.Lng
	}

	errorMessages := pin.Validate()
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	if err := server.DB.Create(&pin).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving pin"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": pinToDTO(server.DB, &pin, catch),
	})
}

// GetPins returns the map view: every pin the authenticated viewer is allowed
// to see, optionally restricted to a radius around a point.
func (server *Server) GetPins(c *gin.Context) {
	viewerID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var radiusFilter bool
	var centerLat, centerLng, radiusKm float64
	if raw := c.Query("radius_km"); raw != "" {
		var err error
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil || radiusKm <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid radius_km"})
			return
		}
		centerLat, err = strconv.ParseFloat(c.Query("lat"), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lat"})
			return
		}
		centerLng, err = strconv.ParseFloat(c.Query("lng"), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lng"})
			return
		}
		radiusFilter = true
	}

	var pins []models.Pin
	if err := server.DB.Order("created_at DESC").Find(&pins).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching pins"})
		return
	}

	catchIDs := make([]uint, 0, len(pins))
	for i := range pins {
		catchIDs = append(catchIDs, pins[i].CatchID)
	}
	catchesByID := make(map[uint]*models.Catch, len(catchIDs))
	if len(catchIDs) > 0 {
		var catches []models.Catch
		if err := server.DB.Where("id IN ?", catchIDs).Find(&catches).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching pins"})
			return
		}
		for i := range catches {
			catchesByID[catches[i].ID] = &catches[i]
		}
	}

	visible := make([]PinDTO, 0, len(pins))
	for i := range pins {
		pin := &pins[i]
		if radiusFilter && haversineKm(centerLat, centerLng, pin.Lat, pin.Lng) > radiusKm {
			continue
		}
		catch := catchesByID[pin.CatchID]
		decision, err := canViewPin(server.DB, viewerID, true, pin, catch)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking visibility"})
			return
		}
		if decision != visibilityAllowed {
			continue
		}
		visible = append(visible, pinToDTO(server.DB, pin, catch))
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": visible,
	})
}

// GetPin fetches a single pin, gated by its tier and the catch rule.
func (server *Server) GetPin(c *gin.Context) {
	pin, err := resolvePinByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, errInvalidIdentifier) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pin not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching pin"})
		return
	}

	var catch *models.Catch
	var record models.Catch
	if err := server.DB.First(&record, pin.CatchID).Error; err == nil {
		catch = &record
	}

	viewerID, hasViewer := optionalViewerID(c)
	decision, err := canViewPin(server.DB, viewerID, hasViewer, pin, catch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking visibility"})
		return
	}
	if decision != visibilityAllowed {
		respondVisibilityDenied(c, decision)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": pinToDTO(server.DB, pin, catch),
	})
}

// UpdatePin lets the owner move a pin or change its visibility tier.
func (server *Server) UpdatePin(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	pin, err := resolvePinByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pin not found"})
		return
	}
	if pin.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own pins"})
		return
	}

	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Visibility != "" {
		pin.Visibility = req.Visibility
	}
	if req.Lat != nil {
		pin.Lat = *req.Lat
	}
	if req.Lng != nil {
		pin.Lng = *req.Lng
	}

	errorMessages := pin.Validate()
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	if err := server.DB.Save(pin).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating pin"})
		return
	}

	var catch *models.Catch
	var record models.Catch
	if err := server.DB.First(&record, pin.CatchID).Error; err == nil {
		catch = &record
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": pinToDTO(server.DB, pin, catch),
	})
}

// DeletePin removes a pin from the map.
func (server *Server) DeletePin(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	pin, err := resolvePinByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pin not found"})
		return
	}
	if pin.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own pins"})
		return
	}

	if err := server.DB.Delete(&models.Pin{}, pin.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting pin"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": "Pin deleted",
	})
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
