package models

import (
	"strings"
	"time"

	"github.com/twinj/uuid"
	"gorm.io/gorm"
)

const (
	PinVisibilityPublic  = "public"
	PinVisibilityMutuals = "mutuals"
	PinVisibilityPrivate = "private"
)

// Pin is a map marker for a single catch. At most one pin exists per catch.
type Pin struct {
	ID         uint      `gorm:"primary_key;autoIncrement" json:"id"`
	PublicID   string    `gorm:"type:uuid;uniqueIndex;column:public_id" json:"public_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	CatchID    uint      `gorm:"not null;uniqueIndex:idx_pins_catch_unique" json:"catch_id"`
	Lat        float64   `gorm:"not null" json:"lat"`
	Lng        float64   `gorm:"not null" json:"lng"`
	Visibility string    `gorm:"size:20;not null;default:public" json:"visibility"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (p *Pin) BeforeCreate(tx *gorm.DB) (err error) {
	if strings.TrimSpace(p.PublicID) == "" {
		p.PublicID = uuid.NewV4().String()
	}
	return nil
}

func ValidPinVisibility(value string) bool {
	switch value {
	case PinVisibilityPublic, PinVisibilityMutuals, PinVisibilityPrivate:
		return true
	}
	return false
}

func (p *Pin) Validate() map[string]string {
	var errorMessages = make(map[string]string)

	if p.CatchID == 0 {
		errorMessages["Required_catch"] = "Required Catch"
	}
	if !ValidPinVisibility(p.Visibility) {
		errorMessages["Invalid_visibility"] = "Visibility must be public, mutuals or private"
	}
	if p.Lat < -90 || p.Lat > 90 {
		errorMessages["Invalid_lat"] = "Latitude must be between -90 and 90"
	}
	if p.Lng < -180 || p.Lng > 180 {
		errorMessages["Invalid_lng"] = "Longitude must be between -180 and 180"
	}
	return errorMessages
}
