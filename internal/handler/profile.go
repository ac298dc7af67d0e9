package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/msomdec/passgate/internal/service"
)

const profilePictureField = "profilePicture"

// ProfileHandler serves profile picture uploads.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// HandleUpload accepts a multipart image in the "profilePicture" field.
// PUT /api/users/upload-profile-picture
func (h *ProfileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	limit := h.profiles.MaxBytes()
	// Leave room for multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusBadRequest, "Image is too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "Request must be multipart/form-data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile(profilePictureField)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	// The declared part type is client-controlled, so sniff the bytes.
	contentType := http.DetectContentType(data)

	account, err := h.profiles.UploadProfilePicture(r.Context(), claims, contentType, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile picture uploaded successfully",
		"user":    toAccountDTO(account),
	})
}
