package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/BeckettFrey/RodRoyale/models"

	"gorm.io/gorm"
)

var errInvalidIdentifier = errors.New("invalid identifier")

func resolveCatchByIdentifier(db *gorm.DB, identifier string) (*models.Catch, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, errInvalidIdentifier
	}
	var catch models.Catch
	if isUUIDLike(trimmed) {
		if err := db.Where("public_id = ?", trimmed).First(&catch).Error; err == nil {
			return &catch, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if numericID, err := strconv.ParseUint(trimmed, 10, 32); err == nil {
		if err := db.First(&catch, uint(numericID)).Error; err != nil {
			return nil, err
		}
		return &catch, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func resolvePinByIdentifier(db *gorm.DB, identifier string) (*models.Pin, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, errInvalidIdentifier
	}
	var pin models.Pin
	if isUUIDLike(trimmed) {
		if err := db.Where("public_id = ?", trimmed).First(&pin).Error; err == nil {
			return &pin, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if numericID, err := strconv.ParseUint(trimmed, 10, 32); err == nil {
		if err := db.First(&pin, uint(numericID)).Error; err != nil {
			return nil, err
		}
		return &pin, nil
	}
	return nil, gorm.ErrRecordNotFound
}
