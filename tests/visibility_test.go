package tests

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BeckettFrey/RodRoyale/controllers"
	"github.com/BeckettFrey/RodRoyale/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func catchRouter(server *controllers.Server, viewerID uint) *gin.Engine {
	r := gin.Default()
	if viewerID != 0 {
		r.Use(AuthMiddlewareForTests(viewerID))
	}
	r.GET("/api/v1/catches/:id", server.GetCatch)
	r.GET("/api/v1/pins/:id", server.GetPin)
	return r
}

func TestOwnerSeesOwnPrivateCatch(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	catch := createTestCatch(t, server.DB, alice.ID, "Trout", 1.2, false, time.Now())

	r := catchRouter(server, alice.ID)
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/catches/%d", catch.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFollowerDeniedPrivateCatch(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	bob := createTestUser(t, server.DB, "bob")
	createFollow(t, server.DB, bob.ID, alice.ID)
	catch := createTestCatch(t, server.DB, alice.ID, "Trout", 1.2, false, time.Now())

	r := catchRouter(server, bob.ID)
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/catches/%d", catch.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFollowerSeesSharedCatch(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	bob := createTestUser(t, server.DB, "bob")
	createFollow(t, server.DB, bob.ID, alice.ID)
	catch := createTestCatch(t, server.DB, alice.ID, "Bass", 2.5, true, time.Now())

	r := catchRouter(server, bob.ID)
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/catches/%d", catch.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNonFollowerDeniedSharedCatch(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	carol := createTestUser(t, server.DB, "carol")
	catch := createTestCatch(t, server.DB, alice.ID, "Bass", 2.5, true, time.Now())

	r := catchRouter(server, carol.ID)
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/catches/%d", catch.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAnonymousGetsUnauthorizedOnSharedCatch(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	catch := createTestCatch(t, server.DB, alice.ID, "Bass", 2.5, true, time.Now())

	r := catchRouter(server, 0)
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/catches/%d", catch.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnonymousDeniedPrivateCatch(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	catch := createTestCatch(t, server.DB, alice.ID, "Trout", 1.2, false, time.Now())

	// Signing in would not help here, so this is a plain deny rather than a
	// requires-auth response.
	r := catchRouter(server, 0)
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/catches/%d", catch.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPinVisibilityIntersectsWithCatchRule(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	bob := createTestUser(t, server.DB, "bob")
	carol := createTestUser(t, server.DB, "carol")
	createFollow(t, server.DB, bob.ID, alice.ID)

	// Public pin on a private catch: nobody but the owner gets through.
	privateCatch := createTestCatch(t, server.DB, alice.ID, "Trout", 1.2, false, time.Now())
	privatePin := models.Pin{
		UserID: alice.ID, CatchID: privateCatch.ID,
		Lat: 44.98, Lng: -93.27, Visibility: models.PinVisibilityPublic,
	}
	server.DB.Create(&privatePin)

	r := catchRouter(server, bob.ID)
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/pins/%d", privatePin.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Public pin on a shared catch: follower allowed, stranger denied.
	sharedCatch := createTestCatch(t, server.DB, alice.ID, "Bass", 2.5, true, time.Now())
	sharedPin := models.Pin{
		UserID: alice.ID, CatchID: sharedCatch.ID,
		Lat: 44.98, Lng: -93.27, Visibility: models.PinVisibilityPublic,
	}
	server.DB.Create(&sharedPin)

	req2, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/pins/%d", sharedPin.ID), nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)

	rCarol := catchRouter(server, carol.ID)
	req3, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/pins/%d", sharedPin.ID), nil)
	w3 := httptest.NewRecorder()
	rCarol.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusForbidden, w3.Code)
}

func TestMutualsPinRequiresMutualFollow(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	bob := createTestUser(t, server.DB, "bob")
	createFollow(t, server.DB, bob.ID, alice.ID)

	catch := createTestCatch(t, server.DB, alice.ID, "Bass", 2.5, true, time.Now())
	pin := models.Pin{
		UserID: alice.ID, CatchID: catch.ID,
		Lat: 44.98, Lng: -93.27, Visibility: models.PinVisibilityMutuals,
	}
	server.DB.Create(&pin)

	// Bob follows Alice but Alice does not follow back: not mutual.
	r := catchRouter(server, bob.ID)
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/pins/%d", pin.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	createFollow(t, server.DB, alice.ID, bob.ID)

	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/pins/%d", pin.ID), nil)
	r.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestOwnerAlwaysSeesOwnPin(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	catch := createTestCatch(t, server.DB, alice.ID, "Trout", 1.2, false, time.Now())
	pin := models.Pin{
		UserID: alice.ID, CatchID: catch.ID,
		Lat: 44.98, Lng: -93.27, Visibility: models.PinVisibilityPrivate,
	}
	server.DB.Create(&pin)

	r := catchRouter(server, alice.ID)
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/pins/%d", pin.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
