package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Appointment statuses. Completed and cancelled are reserved states; no
// operation drives a transition into them yet.
const (
	AppointmentPending   = "pending"
	AppointmentApproved  = "approved"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Appointment model
type Appointment struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        primitive.ObjectID `json:"userId" bson:"userId"`
	BookingDate   time.Time          `json:"bookingDate" bson:"bookingDate"`
	SlotDate      time.Time          `json:"slotDate" bson:"slotDate"`
	SlotRangeTime string             `json:"slotRangeTime" bson:"slotRangeTime"` // e.g. "10:00 AM - 11:00 AM"
	ApproxAmount  float64            `json:"approxAmount" bson:"approxAmount"`
	Status        string             `json:"status" bson:"status"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// AppointmentRequest model for creating an appointment
type AppointmentRequest struct {
	SlotDate      string  `json:"slot_date"` // "DD/MM/YYYY"
	SlotRangeTime string  `json:"slot_range_time"`
	ApproxAmount  float64 `json:"approx_amount"`
}

// AppointmentWithUser attaches the owner's public fields for admin listings.
type AppointmentWithUser struct {
	Appointment `bson:",inline"`
	User        *PublicUser `json:"user,omitempty" bson:"user,omitempty"`
}
