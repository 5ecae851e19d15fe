package controllers

import (
	"net/http"

	"github.com/BeckettFrey/RodRoyale/auth"
	"github.com/BeckettFrey/RodRoyale/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type visibilityDecision int

const (
	visibilityAllowed visibilityDecision = iota
	visibilityDenied
	visibilityRequiresAuth
)

func optionalViewerID(c *gin.Context) (uint, bool) {
	if value, exists := c.Get("userID"); exists {
		if uid, ok := value.(uint); ok {
			return uid, true
		}
	}
	uid, err := auth.ExtractTokenID(c.Request)
	if err != nil {
		return 0, false
	}
	return uid, true
}

func isFollower(db *gorm.DB, followerID, followedID uint) (bool, error) {
	var count int64
	if err := db.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func isMutual(db *gorm.DB, aID, bID uint) (bool, error) {
	fwd, err := isFollower(db, aID, bID)
	if err != nil || !fwd {
		return false, err
	}
	rev, err := isFollower(db, bID, aID)
	if err != nil {
		return false, err
	}
	return rev, nil
}

// canViewCatch applies the catch sharing rule. Owners always see their own
// catches. A shared catch is visible to the owner's followers and demands a
// signed-in viewer; a private catch is visible to nobody else, followers
// included.
func canViewCatch(db *gorm.DB, viewerID uint, hasViewer bool, catch *models.Catch) (visibilityDecision, error) {
	if catch == nil {
		return visibilityDenied, nil
	}
	if hasViewer && viewerID == catch.UserID {
		return visibilityAllowed, nil
	}
	if !catch.SharedWithFollowers {
		return visibilityDenied, nil
	}
	if !hasViewer {
		return visibilityRequiresAuth, nil
	}
	follower, err := isFollower(db, viewerID, catch.UserID)
	if err != nil {
		return visibilityDenied, err
	}
	if !follower {
		return visibilityDenied, nil
	}
	return visibilityAllowed, nil
}

// canViewPin intersects the pin's own tier with the underlying catch rule:
// a pin never reveals a catch its viewer could not fetch directly.
func canViewPin(db *gorm.DB, viewerID uint, hasViewer bool, pin *models.Pin, catch *models.Catch) (visibilityDecision, error) {
	if pin == nil {
		return visibilityDenied, nil
	}
	if hasViewer && viewerID == pin.UserID {
		return visibilityAllowed, nil
	}

	switch pin.Visibility {
	case models.PinVisibilityPrivate:
		return visibilityDenied, nil
	case models.PinVisibilityMutuals:
		if !hasViewer {
			return visibilityDenied, nil
		}
		mutual, err := isMutual(db, viewerID, pin.UserID)
		if err != nil {
			return visibilityDenied, err
		}
		if !mutual {
			return visibilityDenied, nil
		}
	}

	return canViewCatch(db, viewerID, hasViewer, catch)
}

func respondVisibilityDenied(c *gin.Context, decision visibilityDecision) {
	if decision == visibilityRequiresAuth {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to view this content"})
}
