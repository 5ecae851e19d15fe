package controllers

import (
	"strconv"

	"github.com/BeckettFrey/RodRoyale/models"

	"gorm.io/gorm"
)

func uintToString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// userToDTO renders a user for the given viewer. Email is owner-visible only,
// so it is blanked unless the viewer is the record's owner.
func userToDTO(user *models.User, viewerID uint) UserDTO {
	email := ""
	if viewerID != 0 && viewerID == user.ID {
		email = user.Email
	}
	return UserDTO{
		ID:             user.PublicID,
		Username:       user.Username,
		Email:          email,
		Bio:            user.Bio,
		AvatarPath:     user.AvatarPath,
		FollowersCount: int(user.FollowersCount),
		FollowingCount: int(user.FollowingCount),
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func resolveUserSummary(db *gorm.DB, userID uint) UserSummaryDTO {
	if db == nil || userID == 0 {
		return UserSummaryDTO{}
	}
	var record struct {
		PublicID string
		Username string
	}
	if err := db.Model(&models.User{}).
		Select("public_id", "username").
		Where("id = ?", userID).
		Take(&record).Error; err != nil {
		return UserSummaryDTO{}
	}
	return UserSummaryDTO{ID: record.PublicID, Username: record.Username}
}

func catchToDTO(db *gorm.DB, catch *models.Catch) CatchDTO {
	owner := resolveUserSummary(db, catch.UserID)
	return CatchDTO{
		ID:                  catch.PublicID,
		UserID:              owner.ID,
		Owner:               owner,
		Species:             catch.Species,
		Weight:              catch.Weight,
		PhotoURL:            catch.PhotoURL,
		Lat:                 catch.Lat,
		Lng:                 catch.Lng,
		SharedWithFollowers: catch.SharedWithFollowers,
		CreatedAt:           catch.CreatedAt,
		UpdatedAt:           catch.UpdatedAt,
	}
}

func pinToDTO(db *gorm.DB, pin *models.Pin, catch *models.Catch) PinDTO {
	owner := resolveUserSummary(db, pin.UserID)
	dto := PinDTO{
		ID:         pin.PublicID,
		UserID:     owner.ID,
		Owner:      owner,
		Lat:        pin.Lat,
		Lng:        pin.Lng,
		Visibility: pin.Visibility,
		CreatedAt:  pin.CreatedAt,
	}
	if catch != nil {
		dto.CatchID = catch.PublicID
		dto.CatchInfo = &PinCatchInfoDTO{
			ID:      catch.PublicID,
			Species: catch.Species,
			Weight:  catch.Weight,
		}
	}
	return dto
}
