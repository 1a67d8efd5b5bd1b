package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lulus/backend/internal/middleware"
	"github.com/lulus/backend/internal/models"
	"github.com/lulus/backend/internal/services"
)

type PhotoHandler struct {
	photoService   *services.PhotoService
	galleryService services.GalleryService
	participants   services.ParticipantService
	maxSizeMB      int64
}

func NewPhotoHandler(
	photoService *services.PhotoService,
	galleryService services.GalleryService,
	participants services.ParticipantService,
	maxSizeMB int64,
) *PhotoHandler {
	return &PhotoHandler{
		photoService:   photoService,
		galleryService: galleryService,
		participants:   participants,
		maxSizeMB:      maxSizeMB,
	}
}

// Upload stores a gallery photo and registers it with the gallery.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	response, ok := h.saveUpload(w, r, userID)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.galleryService.AddPhoto(ctx, response.URL); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to register photo"))
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(response))
}

// UploadParticipantPhoto stores a profile photo and stamps the participant
// record so clients can cache-bust. Admin only.
func (h *PhotoHandler) UploadParticipantPhoto(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid participant id"))
		return
	}

	response, ok := h.saveUpload(w, r, userID)
	if !ok {
		return
	}

	if err := h.participants.SetPhoto(id, response.URL, response.UpdatedAt); err != nil {
		if err == services.ErrParticipantNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Participant not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update participant photo"))
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(response))
}

func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	uploadID := chi.URLParam(r, "uploadId")

	err := h.photoService.Delete(userID, uploadID)
	if err != nil {
		if err == services.ErrUploadNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Upload not found"))
			return
		}
		if err == services.ErrNotUploadOwner {
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Not authorized to delete this upload"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete upload"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Upload deleted successfully"}))
}

// saveUpload validates and stores the multipart "photo" file. On failure it
// writes the error response and returns ok=false.
func (h *PhotoHandler) saveUpload(w http.ResponseWriter, r *http.Request, userID string) (*models.PhotoUploadResponse, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxSizeMB * 1024 * 1024); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("File too large or invalid form data"))
		return nil, false
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("No photo file provided"))
		return nil, false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid image type. Allowed: JPEG, PNG, GIF, WebP"))
		return nil, false
	}

	response, err := h.photoService.Upload(userID, header.Filename, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to upload photo"))
		return nil, false
	}
	return response, true
}

func isValidImageType(contentType string) bool {
	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
	return validTypes[contentType]
}
