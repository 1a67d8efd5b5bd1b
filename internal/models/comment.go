package models

import "time"

// Comment is a gallery photo comment. Ownership checks compare UserID
// against the authenticated user's uid.
type Comment struct {
	ID          string    `json:"id" bson:"_id"`
	PhotoID     string    `json:"photo_id" bson:"photo_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	DisplayName string    `json:"display_name" bson:"display_name"`
	Comment     string    `json:"comment" bson:"comment"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Like marks a photo as liked by a user. One like per (user, photo).
type Like struct {
	ID        string    `json:"id" bson:"_id"`
	PhotoID   string    `json:"photo_id" bson:"photo_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type AddCommentRequest struct {
	Comment string `json:"comment"`
}

type EditCommentRequest struct {
	Comment string `json:"comment"`
}

func (r *AddCommentRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Comment == "" {
		errors["comment"] = "Comentário não pode ficar vazio"
	}
	if len(r.Comment) > 500 {
		errors["comment"] = "Comentário deve ter no máximo 500 caracteres"
	}

	return errors
}

func (r *EditCommentRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Comment == "" {
		errors["comment"] = "Comentário não pode ficar vazio"
	}
	if len(r.Comment) > 500 {
		errors["comment"] = "Comentário deve ter no máximo 500 caracteres"
	}

	return errors
}
