// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User model. Email and phone carry bson omitempty so absent values stay
// absent in the document and the sparse unique indexes ignore them.
type User struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email,omitempty" bson:"email,omitempty"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Password  string             `json:"password,omitempty" bson:"password"`
	Role      string             `json:"role" bson:"role"`
	Avatar    string             `json:"avatar" bson:"avatar"`
	Deleted   bool               `json:"deleted" bson:"deleted"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// PublicUser is the sanitized projection returned by auth endpoints.
// The password hash never leaves the server.
type PublicUser struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name   string             `json:"name" bson:"name"`
	Email  string             `json:"email,omitempty" bson:"email,omitempty"`
	Phone  string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Role   string             `json:"role" bson:"role"`
	Avatar string             `json:"avatar,omitempty" bson:"avatar,omitempty"`
}

// Public returns the sanitized projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Phone:  u.Phone,
		Role:   u.Role,
		Avatar: u.Avatar,
	}
}

// AllowedAvatars is the fixed avatar set; the empty string means "no avatar".
var AllowedAvatars = []string{"", "avatar1", "avatar2", "avatar3", "avatar4", "avatar5"}

// IsValidAvatar reports whether tag is a member of the avatar set.
func IsValidAvatar(tag string) bool {
	for _, a := range AllowedAvatars {
		if a == tag {
			return true
		}
	}
	return false
}

// RegisterRequest accepts either an explicit email/phone pair (exactly one
// set) or an identifier type tag plus a value.
type RegisterRequest struct {
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Type            string `json:"type,omitempty"`  // "email" or "phone"
	Value           string `json:"value,omitempty"` // identifier value when Type is set
}

// LoginRequest carries the identifier either in the matching field or in Value.
type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Value    string `json:"value,omitempty"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Type  string `json:"type" validate:"required,oneof=email phone"`
	Value string `json:"value" validate:"required"`
}

type ResetPasswordRequest struct {
	Value       string `json:"value"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// UpdateProfileRequest performs a partial update; Password is the current
// password and is always required for re-authentication.
type UpdateProfileRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password" validate:"required"`
}

type UpdateAvatarRequest struct {
	Avatar string `json:"avatar"`
}

// Response is the common envelope for every endpoint.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
