package services

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lulus/backend/internal/models"
	"github.com/lulus/backend/internal/storage"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already registered")
	ErrInvalidPassword = errors.New("invalid password")
)

// UserService backs the local login fallback used when Firebase Auth is not
// configured. The first registered account becomes the admin.
type UserService struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	byEmail map[string]string
	store   *storage.JSONStore
}

func NewUserService(dataDir string) (*UserService, error) {
	store, err := storage.NewJSONStore(dataDir, "users.json")
	if err != nil {
		return nil, err
	}

	s := &UserService{
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
		store:   store,
	}

	var saved []struct {
		models.User
		PasswordHash string `json:"password_hash"`
	}
	if err := store.Load(&saved); err != nil {
		return nil, err
	}
	for _, u := range saved {
		user := u.User
		user.PasswordHash = u.PasswordHash
		s.users[user.ID] = &user
		s.byEmail[user.Email] = user.ID
	}

	return s, nil
}

func (s *UserService) persist() {
	type persistedUser struct {
		models.User
		PasswordHash string `json:"password_hash"`
	}
	list := make([]persistedUser, 0, len(s.users))
	for _, u := range s.users {
		list = append(list, persistedUser{User: *u, PasswordHash: u.PasswordHash})
	}
	if err := s.store.Save(list); err != nil {
		log.Printf("[Users] snapshot save failed: %v", err)
	}
}

func (s *UserService) Register(req *models.RegisterRequest) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[req.Email]; exists {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Name:         req.Name,
		IsAdmin:      len(s.users) == 0,
		CreatedAt:    time.Now(),
	}

	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	s.persist()

	return user, nil
}

func (s *UserService) Login(req *models.LoginRequest) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, exists := s.byEmail[req.Email]
	if !exists {
		return nil, ErrUserNotFound
	}

	user := s.users[userID]
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidPassword
	}

	return user, nil
}

func (s *UserService) GetByID(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}

	return user, nil
}
