package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PasswordOTP is a one-time password-reset code scoped to the email or phone
// being recovered. The store reaps documents past ExpiresAt through a TTL
// index; Used guards against replay once a reset has succeeded.
type PasswordOTP struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Value     string             `json:"value" bson:"value"`
	OTP       string             `json:"otp" bson:"otp"`
	ExpiresAt time.Time          `json:"expiresAt" bson:"expiresAt"`
	Used      bool               `json:"used" bson:"used"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}
