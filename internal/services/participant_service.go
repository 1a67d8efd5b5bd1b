package services

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/lulus/backend/internal/models"
	"github.com/lulus/backend/internal/roster"
	"github.com/lulus/backend/internal/storage"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantBadInput = errors.New("invalid participant input")
)

// ParticipantService is the roster CRUD boundary shared by the in-memory
// and Mongo implementations.
type ParticipantService interface {
	List() ([]models.Participant, error)
	GetByID(id int) (models.Participant, error)
	Create(req *models.CreateParticipantRequest) (models.Participant, error)
	Update(id int, req *models.UpdateParticipantRequest) (models.Participant, error)
	Delete(id int) error
	SetPhoto(id int, url string, updatedAt int64) error
}

// FileParticipantService keeps the roster in memory with a JSON snapshot on
// disk.
type FileParticipantService struct {
	mu           sync.RWMutex
	participants map[int]*models.Participant
	nextID       int
	store        *storage.JSONStore
}

func NewFileParticipantService(dataDir string) (*FileParticipantService, error) {
	store, err := storage.NewJSONStore(dataDir, "participants.json")
	if err != nil {
		return nil, err
	}

	s := &FileParticipantService{
		participants: make(map[int]*models.Participant),
		nextID:       1,
		store:        store,
	}

	var saved []models.Participant
	if err := store.Load(&saved); err != nil {
		return nil, err
	}
	for i := range saved {
		p := saved[i]
		s.participants[p.ID] = &p
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}

	return s, nil
}

func (s *FileParticipantService) persist() {
	list := make([]models.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		list = append(list, *p)
	}
	if err := s.store.Save(list); err != nil {
		log.Printf("[Participants] snapshot save failed: %v", err)
	}
}

func (s *FileParticipantService) List() ([]models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		list = append(list, roster.Normalize(*p))
	}
	return roster.FilterAndSort(list, "", roster.FilterAll, "date"), nil
}

func (s *FileParticipantService) GetByID(id int) (models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.participants[id]
	if !exists {
		return models.Participant{}, ErrParticipantNotFound
	}
	return roster.Normalize(*p), nil
}

func (s *FileParticipantService) Create(req *models.CreateParticipantRequest) (models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p := models.Participant{
		ID:         s.nextID,
		Name:       req.Name,
		FullName:   req.FullName,
		City:       req.City,
		Date:       req.Date,
		GivesToID:  req.GivesToID,
		GivesTo:    req.GivesTo,
		Email:      req.Email,
		Phone:      req.Phone,
		Instagram:  req.Instagram,
		PixKey:     req.PixKey,
		PixKeyType: req.PixKeyType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p = roster.Normalize(p)
	s.denormalizeGivesTo(&p)

	s.nextID++
	s.participants[p.ID] = &p
	s.persist()

	return p, nil
}

func (s *FileParticipantService) Update(id int, req *models.UpdateParticipantRequest) (models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.participants[id]
	if !exists {
		return models.Participant{}, ErrParticipantNotFound
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.FullName != nil {
		p.FullName = *req.FullName
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.Date != nil {
		p.Date = *req.Date
	}
	if req.GivesToID != nil {
		p.GivesToID = *req.GivesToID
		p.GivesTo = ""
	}
	if req.GivesTo != nil {
		p.GivesTo = *req.GivesTo
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.Instagram != nil {
		p.Instagram = *req.Instagram
	}
	if req.PixKey != nil {
		p.PixKey = *req.PixKey
	}
	if req.PixKeyType != nil {
		p.PixKeyType = *req.PixKeyType
	}
	p.UpdatedAt = time.Now()

	*p = roster.Normalize(*p)
	s.denormalizeGivesTo(p)
	s.persist()

	return *p, nil
}

func (s *FileParticipantService) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.participants[id]; !exists {
		return ErrParticipantNotFound
	}
	delete(s.participants, id)

	// Break assignments pointing at the removed participant.
	for _, p := range s.participants {
		if p.GivesToID == id {
			p.GivesToID = 0
			p.GivesTo = ""
		}
		if p.ReceivesFromID == id {
			p.ReceivesFromID = 0
		}
	}

	s.persist()
	return nil
}

func (s *FileParticipantService) SetPhoto(id int, url string, updatedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.participants[id]
	if !exists {
		return ErrParticipantNotFound
	}
	p.PhotoURL = url
	p.PhotoUpdatedAt = updatedAt
	p.UpdatedAt = time.Now()
	s.persist()
	return nil
}

// denormalizeGivesTo fills the display name for a gives_to assignment.
// Unresolvable ids leave the name empty rather than failing.
func (s *FileParticipantService) denormalizeGivesTo(p *models.Participant) {
	if p.GivesTo != "" || p.GivesToID <= 0 {
		return
	}
	if target, exists := s.participants[p.GivesToID]; exists {
		p.GivesTo = target.Name
	}
}
