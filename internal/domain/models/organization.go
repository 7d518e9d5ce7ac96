// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is one of the association's sponsoring organizations.
// Code is a stable lowercase slug; legacy communication audience values and
// URL path segments reference organizations by code, never by ObjectID.
type Organization struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Code   string             `bson:"code" json:"code"`

	// Outbound email identity and branding for this organization.
	SenderName     string `bson:"sender_name" json:"sender_name"`
	SenderEmail    string `bson:"sender_email" json:"sender_email"`
	HeaderImageURL string `bson:"header_image_url" json:"header_image_url"`

	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
