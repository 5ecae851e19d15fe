package tests

import (
	"testing"
	"time"

	"github.com/BeckettFrey/RodRoyale/controllers"
	"github.com/BeckettFrey/RodRoyale/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func AuthMiddlewareForTests(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

// newTestServer wires a Server against an in-memory SQLite database.
func newTestServer(t *testing.T) *controllers.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	server := &controllers.Server{DB: db}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Catch{},
		&models.Pin{},
		&models.ResetPassword{},
	); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	return server
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return &user
}

func createFollow(t *testing.T, db *gorm.DB, followerID, followedID uint) {
	t.Helper()
	follow := models.Follow{FollowerID: followerID, FollowedID: followedID}
	if err := db.Create(&follow).Error; err != nil {
		t.Fatalf("Failed to create follow %d -> %d: %v", followerID, followedID, err)
	}
	for _, id := range []uint{followerID, followedID} {
		if err := db.Exec(
			"UPDATE users SET followers_count = (SELECT COUNT(*) FROM follows WHERE followed_id = ?), following_count = (SELECT COUNT(*) FROM follows WHERE follower_id = ?) WHERE id = ?",
			id, id, id,
		).Error; err != nil {
			t.Fatalf("Failed to recount follow counters: %v", err)
		}
	}
}

func createTestCatch(t *testing.T, db *gorm.DB, userID uint, species string, weight float64, shared bool, createdAt time.Time) *models.Catch {
	t.Helper()
	catch := models.Catch{
		UserID:              userID,
		Species:             species,
		Weight:              weight,
		Lat:                 44.98,
		Lng:                 -93.27,
		SharedWithFollowers: shared,
		CreatedAt:           createdAt,
	}
	if err := db.Create(&catch).Error; err != nil {
		t.Fatalf("Failed to create catch: %v", err)
	}
	// gorm's autoCreateTime would overwrite a backdated timestamp
	if err := db.Model(&models.Catch{}).Where("id = ?", catch.ID).
		Update("created_at", createdAt).Error; err != nil {
		t.Fatalf("Failed to backdate catch: %v", err)
	}
	catch.CreatedAt = createdAt
	return &catch
}
