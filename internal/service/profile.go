package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/passgate/internal/domain"
)

// DefaultMaxUploadBytes caps a profile picture when no limit is configured.
const DefaultMaxUploadBytes = 5 << 20

// ProfileService stores profile pictures with the image host.
type ProfileService struct {
	accounts domain.AccountRepository
	uploader domain.ImageUploader
	maxBytes int64
}

// NewProfileService creates a new ProfileService.
func NewProfileService(accounts domain.AccountRepository, uploader domain.ImageUploader, maxBytes int64) *ProfileService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &ProfileService{accounts: accounts, uploader: uploader, maxBytes: maxBytes}
}

// MaxBytes is the largest accepted image.
func (s *ProfileService) MaxBytes() int64 { return s.maxBytes }

// ProfilePictureKey is the object key for an account's picture. Re-uploads
// overwrite the same object.
func ProfilePictureKey(accountID string) string {
	return "profile_pictures/user_" + accountID + "_profile"
}

// UploadProfilePicture validates and uploads an image, then records its
// public URL on the requester's account.
func (s *ProfileService) UploadProfilePicture(ctx context.Context, claims domain.Claims, contentType string, data []byte) (*domain.Account, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no file uploaded", domain.ErrInvalidInput)
	}
	if contentType != "image/jpeg" && contentType != "image/png" {
		return nil, fmt.Errorf("%w: only JPEG and PNG images are accepted", domain.ErrInvalidInput)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: image exceeds %d byte limit", domain.ErrInvalidInput, s.maxBytes)
	}

	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: account not found", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	url, err := s.uploader.Upload(ctx, ProfilePictureKey(account.ID), contentType, data)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	if err := s.accounts.UpdateFields(ctx, account.ID, domain.AccountUpdate{ProfilePictureURL: &url}); err != nil {
		return nil, fmt.Errorf("save profile picture: %w", err)
	}

	account.ProfilePictureURL = &url
	return account, nil
}
