package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// AttachmentKey composes a time-bucketed key for a care-log attachment:
// <year>/<month>/<token><ext>. Uniqueness rests on the token's entropy,
// not on coordination between writers.
func AttachmentKey(now time.Time, ext string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d/%02d/%s%s", now.Year(), int(now.Month()), token, ext), nil
}

// GalleryKey composes an owner-scoped key for an animal's gallery photo:
// <owner-id>/gallery/<token><ext>.
func GalleryKey(ownerID int64, ext string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(ownerID, 10) + "/gallery/" + token + ext, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate storage token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
