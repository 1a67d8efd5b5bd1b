package models

import (
	"fmt"
	"time"
)

// PixKeyType enumerates the accepted PIX key kinds.
type PixKeyType string

const (
	PixCPF    PixKeyType = "cpf"
	PixEmail  PixKeyType = "email"
	PixPhone  PixKeyType = "phone"
	PixRandom PixKeyType = "random"
	PixNone   PixKeyType = "none"
)

func (t PixKeyType) Valid() bool {
	switch t {
	case PixCPF, PixEmail, PixPhone, PixRandom, PixNone:
		return true
	}
	return false
}

// Participant is a roster entry. GivesToID/ReceivesFromID of 0 means the
// participant is not assigned in the current gift-exchange cycle.
type Participant struct {
	ID             int        `json:"id" bson:"_id"`
	EditToken      string     `json:"edit_token,omitempty" bson:"edit_token,omitempty"`
	Name           string     `json:"name" bson:"name"`
	FullName       string     `json:"full_name" bson:"full_name"`
	City           string     `json:"city" bson:"city"`
	PhotoURL       string     `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	PhotoUpdatedAt int64      `json:"photo_updated_at,omitempty" bson:"photo_updated_at,omitempty"`
	Date           time.Time  `json:"date" bson:"date"`
	Month          string     `json:"month" bson:"month"` // zero-padded "01".."12", derived from Date
	GivesToID      int        `json:"gives_to_id" bson:"gives_to_id"`
	ReceivesFromID int        `json:"receives_to_id" bson:"receives_to_id"`
	GivesTo        string     `json:"gives_to,omitempty" bson:"gives_to,omitempty"`
	Email          string     `json:"email,omitempty" bson:"email,omitempty"`
	Phone          string     `json:"phone,omitempty" bson:"phone,omitempty"`
	Instagram      string     `json:"instagram,omitempty" bson:"instagram,omitempty"`
	PixKey         string     `json:"pix_key,omitempty" bson:"pix_key,omitempty"`
	PixKeyType     PixKeyType `json:"pix_key_type,omitempty" bson:"pix_key_type,omitempty"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at"`
}

// MonthString returns the zero-padded month of a date ("01".."12").
func MonthString(date time.Time) string {
	return fmt.Sprintf("%02d", int(date.Month()))
}

type CreateParticipantRequest struct {
	Name       string     `json:"name"`
	FullName   string     `json:"full_name"`
	City       string     `json:"city"`
	Date       time.Time  `json:"date"`
	GivesToID  int        `json:"gives_to_id"`
	GivesTo    string     `json:"gives_to"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Instagram  string     `json:"instagram"`
	PixKey     string     `json:"pix_key"`
	PixKeyType PixKeyType `json:"pix_key_type"`
}

type UpdateParticipantRequest struct {
	Name       *string     `json:"name"`
	FullName   *string     `json:"full_name"`
	City       *string     `json:"city"`
	Date       *time.Time  `json:"date"`
	GivesToID  *int        `json:"gives_to_id"`
	GivesTo    *string     `json:"gives_to"`
	Email      *string     `json:"email"`
	Phone      *string     `json:"phone"`
	Instagram  *string     `json:"instagram"`
	PixKey     *string     `json:"pix_key"`
	PixKeyType *PixKeyType `json:"pix_key_type"`
}

// Validate returns field-level messages (pt-BR, shown inline by the client).
func (r *CreateParticipantRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Nome é obrigatório"
	}
	if r.Date.IsZero() {
		errors["date"] = "Data de aniversário é obrigatória"
	}
	if r.GivesToID < 0 {
		errors["gives_to_id"] = "Amigo secreto inválido"
	}
	if r.PixKeyType != "" && !r.PixKeyType.Valid() {
		errors["pix_key_type"] = "Tipo de chave PIX inválido"
	}
	if r.PixKey != "" && (r.PixKeyType == "" || r.PixKeyType == PixNone) {
		errors["pix_key_type"] = "Informe o tipo da chave PIX"
	}

	return errors
}

func (r *UpdateParticipantRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name != nil && *r.Name == "" {
		errors["name"] = "Nome não pode ficar vazio"
	}
	if r.Date != nil && r.Date.IsZero() {
		errors["date"] = "Data de aniversário inválida"
	}
	if r.GivesToID != nil && *r.GivesToID < 0 {
		errors["gives_to_id"] = "Amigo secreto inválido"
	}
	if r.PixKeyType != nil && *r.PixKeyType != "" && !r.PixKeyType.Valid() {
		errors["pix_key_type"] = "Tipo de chave PIX inválido"
	}

	return errors
}
