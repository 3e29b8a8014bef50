package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gilcleber/Controle-Premios-sub000/internal/security"
)

// MaxPhotoBytes caps an audit photo upload.
const MaxPhotoBytes = 5 << 20

// Photo validation errors.
var (
	ErrEmptyPhoto           = errors.New("photo is empty")
	ErrPhotoTooLarge        = errors.New("photo exceeds 5 MB")
	ErrUnsupportedPhotoType = errors.New("photo must be jpeg, png or webp")
	ErrObjectExists         = errors.New("object already exists")
)

// allowedPhotoTypes maps accepted MIME types to file extensions.
var allowedPhotoTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// PhotoStore persists audit photos and exposes them by URL.
type PhotoStore interface {
	// Put writes a new object; it fails with ErrObjectExists rather than overwrite.
	Put(ctx context.Context, name string, data []byte, contentType string) error
	// Delete removes an object; a missing object is not an error.
	Delete(ctx context.Context, name string) error
	// PublicURL returns the URL clients use to fetch name.
	PublicURL(name string) string
}

// ValidatePhoto sniffs data and returns its extension and content type.
func ValidatePhoto(data []byte) (ext, contentType string, err error) {
	if len(data) == 0 {
		return "", "", ErrEmptyPhoto
	}
	if len(data) > MaxPhotoBytes {
		return "", "", ErrPhotoTooLarge
	}
	mt := mimetype.Detect(data)
	for candidate := mt; candidate != nil; candidate = candidate.Parent() {
		if ext, ok := allowedPhotoTypes[candidate.String()]; ok {
			return ext, candidate.String(), nil
		}
	}
	return "", "", fmt.Errorf("%w: got %s", ErrUnsupportedPhotoType, mt.String())
}

// ObjectName builds "<masterID>/<photoType>_<unixMillis>_<rand>.<ext>".
func ObjectName(masterID, photoType, ext string, now time.Time) (string, error) {
	masterID = strings.Trim(strings.TrimSpace(masterID), "/")
	if masterID == "" {
		return "", errors.New("storage: empty master id")
	}
	suffix, err := security.GenerateRandomString(8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s_%d_%s.%s", masterID, photoType, now.UnixMilli(), suffix, ext), nil
}

func cleanObjectName(name string) (string, error) {
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if name == "" || strings.Contains(name, "..") || strings.ContainsRune(name, '\\') {
		return "", fmt.Errorf("storage: invalid object name %q", name)
	}
	return name, nil
}
