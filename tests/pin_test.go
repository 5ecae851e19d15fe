package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BeckettFrey/RodRoyale/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCreateCatchWithAutomaticPin(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")

	r := gin.Default()
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddlewareForTests(alice.ID))
	auth.POST("/catches", server.CreateCatch)

	payload := map[string]interface{}{
		"species":               "Bass",
		"weight":                2.5,
		"lat":                   44.98,
		"lng":                   -93.27,
		"shared_with_followers": true,
		"add_to_map":            true,
	}
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/catches", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var pin models.Pin
	err := server.DB.First(&pin).Error
	assert.NoError(t, err)
	assert.Equal(t, alice.ID, pin.UserID)
	assert.Equal(t, models.PinVisibilityPublic, pin.Visibility)
	assert.Equal(t, 44.98, pin.Lat)
	assert.Equal(t, -93.27, pin.Lng)
}

func TestCreatePinRejectsOtherUsersCatch(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	bob := createTestUser(t, server.DB, "bob")
	catch := createTestCatch(t, server.DB, alice.ID, "Bass", 2.5, true, time.Now())

	r := gin.Default()
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddlewareForTests(bob.ID))
	auth.POST("/pins", server.CreatePin)

	payload := map[string]interface{}{"catch_id": fmt.Sprintf("%d", catch.ID)}
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/pins", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateDuplicatePinConflicts(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	catch := createTestCatch(t, server.DB, alice.ID, "Bass", 2.5, true, time.Now())

	r := gin.Default()
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddlewareForTests(alice.ID))
	auth.POST("/pins", server.CreatePin)

	payload := map[string]interface{}{"catch_id": fmt.Sprintf("%d", catch.ID)}
	body, _ := json.Marshal(payload)

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/pins", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req2, _ := http.NewRequest(http.MethodPost, "/api/v1/pins", bytes.NewBuffer(body))
	req2.Header.Set("Content-Type", "application/json")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusConflict, w2.Code)
}

func TestDeleteCatchRemovesItsPin(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	catch := createTestCatch(t, server.DB, alice.ID, "Bass", 2.5, true, time.Now())
	pin := models.Pin{
		UserID: alice.ID, CatchID: catch.ID,
		Lat: 44.98, Lng: -93.27, Visibility: models.PinVisibilityPublic,
	}
	server.DB.Create(&pin)

	r := gin.Default()
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddlewareForTests(alice.ID))
	auth.DELETE("/catches/:id", server.DeleteCatch)

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/catches/%d", catch.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var pinCount, catchCount int64
	server.DB.Model(&models.Pin{}).Count(&pinCount)
	server.DB.Model(&models.Catch{}).Count(&catchCount)
	assert.Equal(t, int64(0), pinCount)
	assert.Equal(t, int64(0), catchCount)
}

func TestGetPinsFiltersByVisibilityAndRadius(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	bob := createTestUser(t, server.DB, "bob")
	createFollow(t, server.DB, bob.ID, alice.ID)

	shared := createTestCatch(t, server.DB, alice.ID, "Bass", 2.5, true, time.Now())
	private := createTestCatch(t, server.DB, alice.ID, "Trout", 1.2, false, time.Now())

	server.DB.Create(&models.Pin{
		UserID: alice.ID, CatchID: shared.ID,
		Lat: 44.98, Lng: -93.27, Visibility: models.PinVisibilityPublic,
	})
	server.DB.Create(&models.Pin{
		UserID: alice.ID, CatchID: private.ID,
		Lat: 44.98, Lng: -93.27, Visibility: models.PinVisibilityPublic,
	})

	r := gin.Default()
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddlewareForTests(bob.ID))
	auth.GET("/pins", server.GetPins)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/pins", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	pins := body["response"].([]interface{})
	// Only the pin on the shared catch is visible to a follower.
	assert.Len(t, pins, 1)

	// A radius centered on the other side of the world excludes everything.
	req2, _ := http.NewRequest(http.MethodGet, "/api/v1/pins?lat=-33.86&lng=151.21&radius_km=50", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)

	var body2 map[string]interface{}
	_ = json.Unmarshal(w2.Body.Bytes(), &body2)
	pins2 := body2["response"].([]interface{})
	assert.Len(t, pins2, 0)
}

func TestUpdatePinVisibility(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	catch := createTestCatch(t, server.DB, alice.ID, "Bass", 2.5, true, time.Now())
	pin := models.Pin{
		UserID: alice.ID, CatchID: catch.ID,
		Lat: 44.98, Lng: -93.27, Visibility: models.PinVisibilityPublic,
	}
	server.DB.Create(&pin)

	r := gin.Default()
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddlewareForTests(alice.ID))
	auth.PUT("/pins/:id", server.UpdatePin)

	payload := map[string]interface{}{"visibility": "mutuals"}
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/pins/%d", pin.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var fresh models.Pin
	server.DB.First(&fresh, pin.ID)
	assert.Equal(t, models.PinVisibilityMutuals, fresh.Visibility)
}
