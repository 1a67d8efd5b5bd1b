package models

import (
	"time"
)

// User is a local account used when Firebase Auth is not configured
// (self-hosted deployments).
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (r *RegisterRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "E-mail é obrigatório"
	}
	if r.Password == "" {
		errors["password"] = "Senha é obrigatória"
	} else if len(r.Password) < 6 {
		errors["password"] = "Senha deve ter pelo menos 6 caracteres"
	}
	if r.Name == "" {
		errors["name"] = "Nome é obrigatório"
	}

	return errors
}

func (r *LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "E-mail é obrigatório"
	}
	if r.Password == "" {
		errors["password"] = "Senha é obrigatória"
	}

	return errors
}
