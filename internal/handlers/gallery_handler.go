package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lulus/backend/internal/gallery"
	"github.com/lulus/backend/internal/middleware"
	"github.com/lulus/backend/internal/models"
	"github.com/lulus/backend/internal/services"
)

type GalleryHandler struct {
	galleryService services.GalleryService
	photoService   *services.PhotoService
}

func NewGalleryHandler(galleryService services.GalleryService, photoService *services.PhotoService) *GalleryHandler {
	return &GalleryHandler{
		galleryService: galleryService,
		photoService:   photoService,
	}
}

type galleryPhotoResponse struct {
	URL     string             `json:"url"`
	PhotoID string             `json:"photo_id"`
	Stats   gallery.PhotoStats `json:"stats"`
}

// List returns every gallery photo with its aggregate stats for the
// requesting viewer. The stats go through a gallery.Session seeded from the
// current server snapshots, so like counts reflect the same derivation the
// interactive engine uses.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	photos, err := h.galleryService.ListPhotos(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list photos"))
		return
	}

	var user *gallery.User
	if uid := middleware.GetUserID(r.Context()); uid != "" {
		user = &gallery.User{
			UID:         uid,
			DisplayName: middleware.GetDisplayName(r.Context()),
			Email:       middleware.GetUserEmail(r.Context()),
		}
	}

	session := gallery.NewSession(h.galleryService, user, photos)
	out := make([]galleryPhotoResponse, 0, len(photos))
	for i, url := range photos {
		photoID := gallery.PhotoID(url)

		likes, err := h.galleryService.Likes(ctx, photoID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load likes"))
			return
		}
		comments, err := h.galleryService.Comments(ctx, photoID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load comments"))
			return
		}
		session.ApplyLikes(photoID, likes)
		session.ApplyComments(photoID, comments)

		out = append(out, galleryPhotoResponse{
			URL:     url,
			PhotoID: photoID,
			Stats:   session.PhotoStats(i),
		})
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(out))
}

func (h *GalleryHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	photoID := chi.URLParam(r, "photoId")

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.galleryService.LikePhoto(ctx, photoID, userID); err != nil {
		if err == services.ErrAlreadyLiked {
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("Photo already liked"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to like photo"))
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(map[string]string{"message": "Photo liked"}))
}

func (h *GalleryHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	photoID := chi.URLParam(r, "photoId")

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.galleryService.UnlikePhoto(ctx, photoID, userID); err != nil {
		if err == services.ErrLikeNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Like not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to unlike photo"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Like removed"}))
}

func (h *GalleryHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	photoID := chi.URLParam(r, "photoId")

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	comments, err := h.galleryService.Comments(ctx, photoID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load comments"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(comments))
}

func (h *GalleryHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	photoID := chi.URLParam(r, "photoId")

	var req models.AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	comment := models.Comment{
		ID:          uuid.New().String(),
		PhotoID:     photoID,
		UserID:      userID,
		DisplayName: middleware.GetDisplayName(r.Context()),
		Comment:     req.Comment,
		CreatedAt:   time.Now(),
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.galleryService.AddComment(ctx, photoID, comment); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to add comment"))
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(comment))
}

func (h *GalleryHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	photoID := chi.URLParam(r, "photoId")
	commentID := chi.URLParam(r, "commentId")

	var req models.EditCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if !h.ownsComment(r, photoID, commentID, userID) {
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Not authorized to edit this comment"))
		return
	}

	if err := h.galleryService.EditComment(ctx, photoID, commentID, req.Comment); err != nil {
		if err == services.ErrCommentNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Comment not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to edit comment"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Comment updated"}))
}

func (h *GalleryHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	photoID := chi.URLParam(r, "photoId")
	commentID := chi.URLParam(r, "commentId")

	if !h.ownsComment(r, photoID, commentID, userID) {
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Not authorized to delete this comment"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.galleryService.DeleteComment(ctx, photoID, commentID); err != nil {
		if err == services.ErrCommentNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Comment not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete comment"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Comment deleted"}))
}

type deletePhotoRequest struct {
	URL string `json:"url"`
}

// DeletePhoto removes a gallery photo by URL. Admin only (mounted behind
// RequireAdmin).
func (h *GalleryHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	var req deletePhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing photo URL"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.galleryService.DeletePhoto(ctx, req.URL); err != nil {
		if err == services.ErrPhotoNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Photo not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete photo"))
		return
	}

	// Clean the local file when the photo was stored by this server.
	if h.photoService != nil {
		if err := h.photoService.DeleteByURL(req.URL); err != nil {
			log.Printf("[Gallery] upload cleanup failed: url=%s err=%v", req.URL, err)
		}
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Photo deleted"}))
}

// ownsComment reports whether userID may modify the comment. Admins may
// modify any comment.
func (h *GalleryHandler) ownsComment(r *http.Request, photoID, commentID, userID string) bool {
	if middleware.IsAdmin(r.Context()) {
		return true
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	comments, err := h.galleryService.Comments(ctx, photoID)
	if err != nil {
		return false
	}
	for _, c := range comments {
		if c.ID == commentID {
			return c.UserID == userID
		}
	}
	// Unknown comments fall through to the service, which reports not-found.
	return true
}
