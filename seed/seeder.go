package seed

import (
	"log"
	"time"

	"github.com/BeckettFrey/RodRoyale/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var users = []models.User{
	{
		Username: "riverjoe",
		Email:    "joe@example.com",
		Password: "password",
		Bio:      "Smallmouth addict, catch and release only.",
	},
	{
		Username: "lakelaura",
		Email:    "laura@example.com",
		Password: "password",
		Bio:      "Chasing the lake record walleye.",
	},
	{
		Username: "pikepete",
		Email:    "pete@example.com",
		Password: "password",
	},
}

var catches = []models.Catch{
	{
		Species:             "Smallmouth Bass",
		Weight:              2.3,
		Lat:                 44.9778,
		Lng:                 -93.2650,
		SharedWithFollowers: true,
	},
	{
		Species:             "Walleye",
		Weight:              3.8,
		Lat:                 46.7867,
		Lng:                 -92.1005,
		SharedWithFollowers: true,
	},
	{
		Species: "Northern Pike",
		Weight:  5.1,
		Lat:     47.2372,
		Lng:     -93.5302,
	},
}

// Load fills an empty database with a few demo anglers, a follow ring and one
// catch apiece. It is a no-op once any user exists.
func Load(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Println("[seed] loading demo data")

	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			return err
		}
	}

	// Everyone follows the next angler in the ring.
	for i := range users {
		follow := models.Follow{
			FollowerID: users[i].ID,
			FollowedID: users[(i+1)%len(users)].ID,
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error; err != nil {
			return err
		}
	}
	for i := range users {
		if err := db.Exec(
			"UPDATE users SET followers_count = (SELECT COUNT(*) FROM follows WHERE followed_id = ?), following_count = (SELECT COUNT(*) FROM follows WHERE follower_id = ?) WHERE id = ?",
			users[i].ID, users[i].ID, users[i].ID,
		).Error; err != nil {
			return err
		}
	}

	now := time.Now()
	for i := range catches {
		catches[i].UserID = users[i].ID
		catches[i].CreatedAt = now.Add(-time.Duration(i+1) * 24 * time.Hour)
		if err := db.Create(&catches[i]).Error; err != nil {
			return err
		}

		if catches[i].SharedWithFollowers {
			pin := models.Pin{
				UserID:     catches[i].UserID,
				CatchID:    catches[i].ID,
				Lat:        catches[i].Lat,
				Lng:        catches[i].Lng,
				Visibility: models.PinVisibilityPublic,
			}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&pin).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
