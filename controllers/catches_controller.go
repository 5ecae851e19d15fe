package controllers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/BeckettFrey/RodRoyale/models"
	"github.com/BeckettFrey/RodRoyale/utils/fileformat"
	httpctx "github.com/BeckettFrey/RodRoyale/utils/httpctx"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type catchRequest struct {
	Species             string  `json:"species"`
	Weight              float64 `json:"weight"`
	PhotoURL            string  `json:"photo_url"`
	Lat                 float64 `json:"lat"`
	Lng                 float64 `json:"lng"`
	SharedWithFollowers bool    `json:"shared_with_followers"`
	AddToMap            bool    `json:"add_to_map"`
}

// CreateCatch logs a new catch for the authenticated user. With add_to_map
// set, a public pin is dropped at the catch coordinates in the same request.
func (server *Server) CreateCatch(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req catchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	catch := models.Catch{
		UserID:              userID,
		Species:             req.Species,
		Weight:              req.Weight,
		PhotoURL:            req.PhotoURL,
		Lat:                 req.Lat,
		Lng:                 req.Lng,
		SharedWithFollowers: req.SharedWithFollowers,
	}
	catch.Prepare()
	errorMessages := catch.Validate()
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	saved, err := catch.SaveCatch(server.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving catch"})
		return
	}

	if req.AddToMap {
		server.createAutomaticPin(saved)
	}

	invalidateLeaderboardCache()
	server.Events.Publish("catch.created", map[string]interface{}{
		"catch_id": saved.PublicID,
		"user_id":  userID,
		"species":  saved.Species,
	})

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": catchToDTO(server.DB, saved),
	})
}

// CreateCatchWithImage accepts a multipart form with the catch fields plus a
// photo, uploads the photo to S3 and logs the catch in one call.
func (server *Server) CreateCatchWithImage(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	weight, err := strconv.ParseFloat(c.PostForm("weight"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid weight"})
		return
	}
	lat, err := strconv.ParseFloat(c.PostForm("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid latitude"})
		return
	}
	lng, err := strconv.ParseFloat(c.PostForm("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid longitude"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot open file"})
		return
	}
	defer f.Close()

	size := file.Size
	if size > 5_242_880 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (<5MB)"})
		return
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read file"})
		return
	}
	fileType := http.DetectContentType(buf)
	if !strings.HasPrefix(fileType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not an image"})
		return
	}

	key := "CatchPhotos/" + fileformat.UniqueFormat(file.Filename)
	photoURL, err := server.uploadToS3(key, buf, fileType)
	if err != nil {
		log.Printf("S3 upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	catch := models.Catch{
		UserID:              userID,
		Species:             c.PostForm("species"),
		Weight:              weight,
		PhotoURL:            photoURL,
		Lat:                 lat,
		Lng:                 lng,
		SharedWithFollowers: c.PostForm("shared_with_followers") == "true",
	}
	catch.Prepare()
	errorMessages := catch.Validate()
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	saved, err := catch.SaveCatch(server.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving catch"})
		return
	}

	if c.PostForm("add_to_map") == "true" {
		server.createAutomaticPin(saved)
	}

	invalidateLeaderboardCache()
	server.Events.Publish("catch.created", map[string]interface{}{
		"catch_id": saved.PublicID,
		"user_id":  userID,
		"species":  saved.Species,
	})

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": catchToDTO(server.DB, saved),
	})
}

// createAutomaticPin drops a public pin at the catch location. Failures are
// logged but never fail the catch creation, and an existing pin for the catch
// is left alone.
func (server *Server) createAutomaticPin(catch *models.Catch) {
	pin := models.Pin{
		UserID:     catch.UserID,
		CatchID:    catch.ID,
		Lat:        catch.Lat,
		Lng:        catch.Lng,
		Visibility: models.PinVisibilityPublic,
	}
	result := server.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&pin)
	if result.Error != nil {
		log.Printf("automatic pin for catch %d: %v", catch.ID, result.Error)
	}
}

// GetFeed returns the authenticated user's feed: their own catches plus
// shared catches from everyone they follow, newest first.
func (server *Server) GetFeed(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "20"))
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}

	var catches []models.Catch
	err = server.DB.
		Where(
			"user_id = ? OR (user_id IN (SELECT followed_id FROM follows WHERE follower_id = ?) AND shared_with_followers = ?)",
			userID, userID, true,
		).
		Order("created_at DESC, id DESC").
		Offset(skip).
		Limit(limit).
		Find(&catches).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching feed"})
		return
	}

	responses := make([]CatchDTO, len(catches))
	for i := range catches {
		responses[i] = catchToDTO(server.DB, &catches[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": responses,
	})
}

// GetMyCatches lists all of the authenticated user's catches, newest first.
func (server *Server) GetMyCatches(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "20"))
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}

	var catches []models.Catch
	err = server.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(skip).
		Limit(limit).
		Find(&catches).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching catches"})
		return
	}

	responses := make([]CatchDTO, len(catches))
	for i := range catches {
		responses[i] = catchToDTO(server.DB, &catches[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": responses,
	})
}

// GetCatch fetches a single catch, gated by the sharing rule.
func (server *Server) GetCatch(c *gin.Context) {
	catch, err := resolveCatchByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, errInvalidIdentifier) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Catch not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching catch"})
		return
	}

	viewerID, hasViewer := optionalViewerID(c)
	decision, err := canViewCatch(server.DB, viewerID, hasViewer, catch)
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
		"response": catchToDTO(server.DB, catch),
	})
}

// GetUserCatches lists a user's catches filtered down to what the viewer may
// see: owners get everything, followers get shared catches, everyone else
// gets an empty list.
func (server *Server) GetUserCatches(c *gin.Context) {
	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "20"))
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}

	viewerID, hasViewer := optionalViewerID(c)

	query := server.DB.Where("user_id = ?", target.ID)
	if !hasViewer || viewerID != target.ID {
		follower := false
		if hasViewer {
			follower, err = isFollower(server.DB, viewerID, target.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking visibility"})
				return
			}
		}
		if !follower {
			c.JSON(http.StatusOK, gin.H{
				"status":   http.StatusOK,
				"response": []CatchDTO{},
			})
			return
		}
		query = query.Where("shared_with_followers = ?", true)
	}

	var catches []models.Catch
	err = query.
		Order("created_at DESC, id DESC").
		Offset(skip).
		Limit(limit).
		Find(&catches).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching catches"})
		return
	}

	responses := make([]CatchDTO, len(catches))
	for i := range catches {
		responses[i] = catchToDTO(server.DB, &catches[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": responses,
	})
}

// UpdateCatch lets the owner edit a catch.
func (server *Server) UpdateCatch(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	catch, err := resolveCatchByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Catch not found"})
		return
	}
	if catch.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own catches"})
		return
	}

	var req catchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	catch.Species = req.Species
	catch.Weight = req.Weight
	catch.Lat = req.Lat
	catch.Lng = req.Lng
	catch.SharedWithFollowers = req.SharedWithFollowers
	if req.PhotoURL != "" {
		catch.PhotoURL = req.PhotoURL
	}
	catch.Prepare()
	errorMessages := catch.Validate()
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	if err := server.DB.Save(catch).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating catch"})
		return
	}

	invalidateLeaderboardCache()

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": catchToDTO(server.DB, catch),
	})
}

// DeleteCatch removes a catch and its pin, if any.
func (server *Server) DeleteCatch(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	catch, err := resolveCatchByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Catch not found"})
		return
	}
	if catch.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own catches"})
		return
	}

	err = server.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("catch_id = ?", catch.ID).Delete(&models.Pin{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Catch{}, catch.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting catch"})
		return
	}

	invalidateLeaderboardCache()

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": "Catch deleted",
	})
}
