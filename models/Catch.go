package models

import (
	"html"
	"strings"
	"time"

	"github.com/twinj/uuid"
	"gorm.io/gorm"
)

type Catch struct {
	ID                  uint      `gorm:"primary_key;autoIncrement" json:"id"`
	PublicID            string    `gorm:"type:uuid;uniqueIndex;column:public_id" json:"public_id"`
	UserID              uint      `gorm:"not null;index;index:idx_catches_user_created,priority:1" json:"user_id"`
	Species             string    `gorm:"size:100;not null" json:"species"`
	Weight              float64   `gorm:"not null" json:"weight"`
	PhotoURL            string    `gorm:"size:512" json:"photo_url"`
	ThumbnailURL        string    `gorm:"size:512" json:"thumbnail_url"`
	Lat                 float64   `gorm:"not null" json:"lat"`
	Lng                 float64   `gorm:"not null" json:"lng"`
	SharedWithFollowers bool      `gorm:"not null;default:false" json:"shared_with_followers"`
	CreatedAt           time.Time `gorm:"default:CURRENT_TIMESTAMP;index;index:idx_catches_user_created,priority:2" json:"created_at"`
	UpdatedAt           time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ct *Catch) BeforeCreate(tx *gorm.DB) (err error) {
	if strings.TrimSpace(ct.PublicID) == "" {
		ct.PublicID = uuid.NewV4().String()
	}
	return nil
}

func (ct *Catch) Prepare() {
	ct.Species = html.EscapeString(strings.TrimSpace(ct.Species))
	if ct.CreatedAt.IsZero() {
		ct.CreatedAt = time.Now()
	}
	ct.UpdatedAt = time.Now()
}

func (ct *Catch) Validate() map[string]string {
	var errorMessages = make(map[string]string)

	if ct.Species == "" {
		errorMessages["Required_species"] = "Required Species"
	}
	if len(ct.Species) > 100 {
		errorMessages["Invalid_species"] = "Species should be at most 100 characters"
	}
	if ct.Weight <= 0 {
		errorMessages["Invalid_weight"] = "Weight must be greater than 0"
	}
	if ct.Lat < -90 || ct.Lat > 90 {
		errorMessages["Invalid_lat"] = "Latitude must be between -90 and 90"
	}
	if ct.Lng < -180 || ct.Lng > 180 {
		errorMessages["Invalid_lng"] = "Longitude must be between -180 and 180"
	}
	if ct.PhotoURL != "" && !strings.HasPrefix(ct.PhotoURL, "http://") && !strings.HasPrefix(ct.PhotoURL, "https://") {
		errorMessages["Invalid_photo_url"] = "Photo URL must be an http(s) URL"
	}
	return errorMessages
}

func (ct *Catch) SaveCatch(db *gorm.DB) (*Catch, error) {
	if err := db.Create(&ct).Error; err != nil {
		return nil, err
	}
	return ct, nil
}

func (ct *Catch) FindCatchByID(db *gorm.DB, cid uint) (*Catch, error) {
	var catch Catch
	if err := db.Where("id = ?", cid).Take(&catch).Error; err != nil {
		return nil, err
	}
	return &catch, nil
}
