package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BeckettFrey/RodRoyale/controllers"
	"github.com/BeckettFrey/RodRoyale/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func leaderboardRouter(server *controllers.Server, viewerID uint) *gin.Engine {
	r := gin.Default()
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddlewareForTests(viewerID))
	auth.GET("/leaderboard/my-stats", server.GetMyStats)
	auth.GET("/leaderboard/following", server.GetFollowingLeaderboard)
	auth.GET("/leaderboard/global", server.GetGlobalLeaderboard)
	auth.GET("/leaderboard/species/:species", server.GetSpeciesLeaderboard)
	return r
}

func getLeaderboard(t *testing.T, r *gin.Engine, path string) map[string]interface{} {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body["response"].(map[string]interface{})
}

func TestGlobalLeaderboardBiggestCatchOrdering(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	bob := createTestUser(t, server.DB, "bob")
	carol := createTestUser(t, server.DB, "carol")

	now := time.Now()
	createTestCatch(t, server.DB, bob.ID, "Pike", 15, true, now.Add(-time.Hour))
	createTestCatch(t, server.DB, alice.ID, "Bass", 10, true, now.Add(-2*time.Hour))
	createTestCatch(t, server.DB, carol.ID, "Perch", 3, true, now.Add(-3*time.Hour))

	r := leaderboardRouter(server, alice.ID)
	response := getLeaderboard(t, r, "/api/v1/leaderboard/global?metric=biggest_catch")

	entries := response["leaderboard"].([]interface{})
	assert.Len(t, entries, 3)
	assert.Equal(t, float64(3), response["total_users"])

	first := entries[0].(map[string]interface{})
	second := entries[1].(map[string]interface{})
	third := entries[2].(map[string]interface{})
	assert.Equal(t, "bob", first["username"])
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, "alice", second["username"])
	assert.Equal(t, float64(2), second["rank"])
	assert.Equal(t, "carol", third["username"])
	assert.Equal(t, float64(3), third["rank"])

	assert.Equal(t, float64(2), *jsonNumber(response["current_user_rank"]))
}

func jsonNumber(v interface{}) *float64 {
	if v == nil {
		return nil
	}
	f := v.(float64)
	return &f
}

func TestGlobalLeaderboardExcludesUsersWithoutWindowCatches(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	bob := createTestUser(t, server.DB, "bob")

	now := time.Now()
	createTestCatch(t, server.DB, alice.ID, "Bass", 10, true, now.Add(-time.Hour))
	// Bob's only catch is far outside the 30-day window.
	createTestCatch(t, server.DB, bob.ID, "Pike", 20, true, now.Add(-45*24*time.Hour))

	r := leaderboardRouter(server, bob.ID)
	response := getLeaderboard(t, r, "/api/v1/leaderboard/global")

	entries := response["leaderboard"].([]interface{})
	assert.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].(map[string]interface{})["username"])
	assert.Nil(t, response["current_user_rank"])
	assert.Nil(t, response["current_user_stats"])
}

func TestLeaderboardDenseRanksOnTies(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	bob := createTestUser(t, server.DB, "bob")
	carol := createTestUser(t, server.DB, "carol")

	now := time.Now()
	// Alice and Bob tie at 10; Alice's catch is earlier so she lists first.
	createTestCatch(t, server.DB, alice.ID, "Bass", 10, true, now.Add(-3*time.Hour))
	createTestCatch(t, server.DB, bob.ID, "Bass", 10, true, now.Add(-2*time.Hour))
	createTestCatch(t, server.DB, carol.ID, "Perch", 5, true, now.Add(-time.Hour))

	r := leaderboardRouter(server, carol.ID)
	response := getLeaderboard(t, r, "/api/v1/leaderboard/global?metric=biggest_catch")

	entries := response["leaderboard"].([]interface{})
	assert.Len(t, entries, 3)

	first := entries[0].(map[string]interface{})
	second := entries[1].(map[string]interface{})
	third := entries[2].(map[string]interface{})
	assert.Equal(t, "alice", first["username"])
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, "bob", second["username"])
	assert.Equal(t, float64(1), second["rank"])
	assert.Equal(t, "carol", third["username"])
	assert.Equal(t, float64(2), third["rank"])
}

func TestLeaderboardViewerRankBeyondTruncatedPage(t *testing.T) {
	server := newTestServer(t)

	now := time.Now()
	var viewerID uint
	for i := 0; i < 4; i++ {
		user := createTestUser(t, server.DB, []string{"u1", "u2", "u3", "u4"}[i])
		createTestCatch(t, server.DB, user.ID, "Bass", float64(10-i), true, now.Add(-time.Hour))
		viewerID = user.ID
	}

	r := leaderboardRouter(server, viewerID)
	response := getLeaderboard(t, r, "/api/v1/leaderboard/global?limit=2")

	entries := response["leaderboard"].([]interface{})
	assert.Len(t, entries, 2)
	assert.Equal(t, float64(4), response["total_users"])
	assert.Equal(t, float64(4), *jsonNumber(response["current_user_rank"]))
	assert.NotNil(t, response["current_user_stats"])
}

func TestFollowingLeaderboardScope(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	bob := createTestUser(t, server.DB, "bob")
	carol := createTestUser(t, server.DB, "carol")
	createFollow(t, server.DB, alice.ID, bob.ID)

	now := time.Now()
	createTestCatch(t, server.DB, alice.ID, "Bass", 5, true, now.Add(-time.Hour))
	createTestCatch(t, server.DB, bob.ID, "Pike", 8, true, now.Add(-time.Hour))
	createTestCatch(t, server.DB, carol.ID, "Muskie", 20, true, now.Add(-time.Hour))

	r := leaderboardRouter(server, alice.ID)
	response := getLeaderboard(t, r, "/api/v1/leaderboard/following")

	entries := response["leaderboard"].([]interface{})
	assert.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[0].(map[string]interface{})["username"])
	assert.Equal(t, "alice", entries[1].(map[string]interface{})["username"])
}

func TestFollowingLeaderboardKeepsZeroCatchFollowed(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	bob := createTestUser(t, server.DB, "bob")
	createFollow(t, server.DB, alice.ID, bob.ID)

	now := time.Now()
	createTestCatch(t, server.DB, alice.ID, "Bass", 5, true, now.Add(-time.Hour))
	// Bob has not fished this month but is still ranked, with zeros.

	r := leaderboardRouter(server, alice.ID)
	response := getLeaderboard(t, r, "/api/v1/leaderboard/following")

	entries := response["leaderboard"].([]interface{})
	assert.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].(map[string]interface{})["username"])

	last := entries[1].(map[string]interface{})
	assert.Equal(t, "bob", last["username"])
	assert.Equal(t, float64(0), last["value"])
	stats := last["stats"].(map[string]interface{})
	assert.Equal(t, float64(0), stats["catch_count"])
}

func TestSpeciesLeaderboardSubstringMatch(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	bob := createTestUser(t, server.DB, "bob")

	now := time.Now()
	createTestCatch(t, server.DB, alice.ID, "Largemouth Bass", 4, true, now.Add(-time.Hour))
	createTestCatch(t, server.DB, alice.ID, "Smallmouth Bass", 3, true, now.Add(-time.Hour))
	// Bob only has trout, so he must not appear on the bass board.
	createTestCatch(t, server.DB, bob.ID, "Rainbow Trout", 9, true, now.Add(-time.Hour))

	r := leaderboardRouter(server, alice.ID)
	response := getLeaderboard(t, r, "/api/v1/leaderboard/species/bass")

	entries := response["leaderboard"].([]interface{})
	assert.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, "alice", entry["username"])

	stats := entry["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["catch_count"])
	assert.Equal(t, 3.5, stats["average_weight"])
	assert.Equal(t, float64(4), stats["biggest_catch_weight"])
	assert.Equal(t, "Largemouth Bass", stats["biggest_catch_species"])
}

func TestAverageWeightRounding(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")

	now := time.Now()
	createTestCatch(t, server.DB, alice.ID, "Bass", 1, true, now.Add(-time.Hour))
	createTestCatch(t, server.DB, alice.ID, "Bass", 2, true, now.Add(-time.Hour))
	createTestCatch(t, server.DB, alice.ID, "Bass", 2, true, now.Add(-time.Hour))

	r := leaderboardRouter(server, alice.ID)
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/leaderboard/my-stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	stats := body["response"].(map[string]interface{})
	// 5/3 rounds to 1.67
	assert.Equal(t, 1.67, stats["average_weight"])
	assert.Equal(t, float64(3), stats["catch_count"])
	assert.Equal(t, float64(3), stats["total_catches"])
}

func TestLeaderboardEntriesCarryBio(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")
	server.DB.Model(&models.User{}).Where("id = ?", alice.ID).
		Update("bio", "Fly fishing the driftless")

	createTestCatch(t, server.DB, alice.ID, "Bass", 5, true, time.Now().Add(-time.Hour))

	r := leaderboardRouter(server, alice.ID)
	response := getLeaderboard(t, r, "/api/v1/leaderboard/global")

	entries := response["leaderboard"].([]interface{})
	assert.Len(t, entries, 1)
	assert.Equal(t, "Fly fishing the driftless", entries[0].(map[string]interface{})["bio"])
}

func TestMyStatsCountLifetimeCatchesOutsideWindow(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")

	// Alice's only catch predates the 30-day window.
	createTestCatch(t, server.DB, alice.ID, "Pike", 8, true, time.Now().Add(-45*24*time.Hour))

	r := leaderboardRouter(server, alice.ID)
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/leaderboard/my-stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	stats := body["response"].(map[string]interface{})
	assert.Equal(t, float64(0), stats["catch_count"])
	assert.Equal(t, float64(0), stats["average_weight"])
	assert.Equal(t, float64(1), stats["total_catches"])
}

func TestLeaderboardRejectsInvalidParams(t *testing.T) {
	server := newTestServer(t)
	alice := createTestUser(t, server.DB, "alice")

	r := leaderboardRouter(server, alice.ID)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/leaderboard/global?metric=longest_cast", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req2, _ := http.NewRequest(http.MethodGet, "/api/v1/leaderboard/global?limit=51", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusBadRequest, w2.Code)
}
