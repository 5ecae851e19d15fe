package fileformat

import (
	"path"

	"github.com/twinj/uuid"
)

// UniqueFormat derives a collision-free object key from an uploaded filename,
// preserving the extension.
func UniqueFormat(fileName string) string {
	return uuid.NewV4().String() + path.Ext(fileName)
}
