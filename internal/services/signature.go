package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fichaje-app/apiserver/internal/export"
	"github.com/fichaje-app/apiserver/internal/storage"
	"github.com/fichaje-app/apiserver/types"
)

const signatureDataPrefix = "data:image/png;base64,"

// ErrInvalidSignature is returned when the payload is not a decodable
// PNG data URL.
var ErrInvalidSignature = errors.New("invalid signature payload")

// SignatureService stores the confirmation signatures drawn on the
// kiosk, next to the same day's clock sheet.
type SignatureService struct {
	storage *storage.Storage
	loc     *time.Location
}

func NewSignatureService(st *storage.Storage, loc *time.Location) *SignatureService {
	return &SignatureService{storage: st, loc: loc}
}

// Save decodes the base64 PNG data URL and uploads it under the user's
// daily folder. Returns the storage key.
func (s *SignatureService) Save(ctx context.Context, user types.User, kind string, dataURL string, at time.Time) (string, error) {
	payload := strings.TrimPrefix(dataURL, signatureDataPrefix)
	if strings.TrimSpace(payload) == "" {
		return "", ErrInvalidSignature
	}
	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrInvalidSignature
	}

	date := export.FormatDate(at.In(s.loc))
	key := export.SignatureKey(user.FacilityID, export.UserFolder(user.Name, user.PIN), date, export.Sanitize(kind))
	if err := s.storage.Put(ctx, key, image, export.PNGContentType); err != nil {
		return "", fmt.Errorf("upload signature %s: %w", key, err)
	}
	return key, nil
}
