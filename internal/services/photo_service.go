package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lulus/backend/internal/models"
)

var (
	ErrUploadNotFound = errors.New("upload not found")
	ErrNotUploadOwner = errors.New("not the upload owner")
)

// PhotoService stores uploaded photo files on disk and hands out
// cache-busting version stamps.
type PhotoService struct {
	mu        sync.RWMutex
	uploadDir string
	records   map[string]*uploadRecord // uploadID -> record
	byURL     map[string]string        // public URL -> uploadID
}

type uploadRecord struct {
	ID        string
	Filename  string
	Path      string
	URL       string
	UserID    string
	UpdatedAt int64
}

func NewPhotoService(uploadDir string) *PhotoService {
	os.MkdirAll(uploadDir, 0755)

	return &PhotoService{
		uploadDir: uploadDir,
		records:   make(map[string]*uploadRecord),
		byURL:     make(map[string]string),
	}
}

func (s *PhotoService) Upload(userID string, filename string, file io.Reader) (*models.PhotoUploadResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uploadID := uuid.New().String()

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}

	newFilename := uploadID + ext
	filePath := filepath.Join(s.uploadDir, newFilename)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	record := &uploadRecord{
		ID:        uploadID,
		Filename:  newFilename,
		Path:      filePath,
		URL:       "/uploads/" + newFilename,
		UserID:    userID,
		UpdatedAt: time.Now().UnixMilli(),
	}
	s.records[uploadID] = record
	s.byURL[record.URL] = uploadID

	return &models.PhotoUploadResponse{
		ID:        uploadID,
		URL:       record.URL,
		Filename:  newFilename,
		UpdatedAt: record.UpdatedAt,
	}, nil
}

// Delete removes an upload by id. Only the uploader (or an admin, checked by
// the handler) may delete.
func (s *PhotoService) Delete(userID, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[uploadID]
	if !exists {
		return ErrUploadNotFound
	}
	if record.UserID != userID {
		return ErrNotUploadOwner
	}
	return s.removeLocked(record)
}

// DeleteByURL removes an upload addressed by its public URL. Used when a
// gallery photo is deleted. Unknown URLs (external storage) are ignored.
func (s *PhotoService) DeleteByURL(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uploadID, exists := s.byURL[url]
	if !exists {
		return nil
	}
	return s.removeLocked(s.records[uploadID])
}

func (s *PhotoService) removeLocked(record *uploadRecord) error {
	if err := os.Remove(record.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	delete(s.records, record.ID)
	delete(s.byURL, record.URL)
	return nil
}
