package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/turfbook/turfbook_backend/config"
	"github.com/turfbook/turfbook_backend/middleware"
	"github.com/turfbook/turfbook_backend/models"
)

var errInvalidSlotDate = errors.New("invalid slot date")

// AppointmentController handles appointment lifecycle endpoints
type AppointmentController struct {
	DB *mongo.Client
}

// NewAppointmentController creates a new appointment controller
func NewAppointmentController(db *mongo.Client) *AppointmentController {
	return &AppointmentController{DB: db}
}

// parseSlotDate converts a "DD/MM/YYYY" string to a calendar date at
// midnight UTC. The input must have exactly three slash-separated components.
func parseSlotDate(value string) (time.Time, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 3 {
		return time.Time{}, errInvalidSlotDate
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, err
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, err
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, err
	}

	if day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, errInvalidSlotDate
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// ConfirmAppointment creates a new pending appointment owned by the caller
func (ac *AppointmentController) ConfirmAppointment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Success: false,
			Message: "Unauthorized",
		})
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid user ID",
		})
	}

	var req models.AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid request body",
		})
	}

	if req.SlotDate == "" || req.SlotRangeTime == "" || req.ApproxAmount <= 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Slot date, slot time range and approximate amount are required",
		})
	}

	slotDate, err := parseSlotDate(req.SlotDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid slot date format, expected DD/MM/YYYY",
		})
	}

	now := time.Now()
	appointment := models.Appointment{
		UserID:        userID,
		BookingDate:   now,
		SlotDate:      slotDate,
		SlotRangeTime: req.SlotRangeTime,
		ApproxAmount:  req.ApproxAmount,
		Status:        models.AppointmentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	collection := config.GetCollection(ac.DB, "appointments")
	result, err := collection.InsertOne(ctx, appointment)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to create appointment",
		})
	}

	appointment.ID = result.InsertedID.(primitive.ObjectID)

	return c.JSON(http.StatusCreated, models.Response{
		Success: true,
		Message: "Appointment created successfully",
		Data:    appointment,
	})
}

// ListAppointments returns the caller's appointments. Admins see every
// appointment with the owner's public fields attached.
func (ac *AppointmentController) ListAppointments(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Success: false,
			Message: "Unauthorized",
		})
	}

	collection := config.GetCollection(ac.DB, "appointments")

	if claims.Role == models.RoleAdmin {
		appointments, err := ac.findAppointmentsWithOwners(ctx, collection, bson.M{})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Success: false,
				Message: "Failed to fetch appointments",
			})
		}

		return c.JSON(http.StatusOK, models.Response{
			Success: true,
			Message: "Appointments retrieved successfully",
			Data:    appointments,
		})
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid user ID",
		})
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to fetch appointments",
		})
	}
	defer cursor.Close(ctx)

	appointments := []models.Appointment{}
	if err := cursor.All(ctx, &appointments); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to decode appointments",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Appointments retrieved successfully",
		Data:    appointments,
	})
}

// GetAppointmentByID fetches one appointment. Non-admin callers may only
// fetch their own; an ownership mismatch reads as not-found so existence
// never leaks.
func (ac *AppointmentController) GetAppointmentByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Success: false,
			Message: "Unauthorized",
		})
	}

	appointmentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid appointment ID",
		})
	}

	collection := config.GetCollection(ac.DB, "appointments")

	if claims.Role == models.RoleAdmin {
		appointments, err := ac.findAppointmentsWithOwners(ctx, collection, bson.M{"_id": appointmentID})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Success: false,
				Message: "Failed to fetch appointment",
			})
		}
		if len(appointments) == 0 {
			return c.JSON(http.StatusNotFound, models.Response{
				Success: false,
				Message: "Appointment not found",
			})
		}

		return c.JSON(http.StatusOK, models.Response{
			Success: true,
			Message: "Appointment retrieved successfully",
			Data:    appointments[0],
		})
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid user ID",
		})
	}

	var appointment models.Appointment
	err = collection.FindOne(ctx, bson.M{"_id": appointmentID, "userId": userID}).Decode(&appointment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Success: false,
				Message: "Appointment not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to fetch appointment",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Appointment retrieved successfully",
		Data:    appointment,
	})
}

// ApproveAppointment sets an appointment's status to approved. Admin-only;
// the role guard runs in the route middleware. The transition is applied
// regardless of the current status.
func (ac *AppointmentController) ApproveAppointment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	appointmentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid appointment ID",
		})
	}

	collection := config.GetCollection(ac.DB, "appointments")

	result, err := collection.UpdateOne(ctx, bson.M{"_id": appointmentID}, bson.M{
		"$set": bson.M{
			"status":    models.AppointmentApproved,
			"updatedAt": time.Now(),
		},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to approve appointment",
		})
	}

	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Success: false,
			Message: "Appointment not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Appointment approved successfully",
	})
}

// findAppointmentsWithOwners joins each appointment with its owner's public
// fields through a $lookup on the users collection.
func (ac *AppointmentController) findAppointmentsWithOwners(ctx context.Context, collection *mongo.Collection, match bson.M) ([]models.AppointmentWithUser, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$user",
			"preserveNullAndEmptyArrays": true,
		}}},
		{{Key: "$project", Value: bson.M{
			"user.password":  0,
			"user.avatar":    0,
			"user.deleted":   0,
			"user.createdAt": 0,
			"user.updatedAt": 0,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	appointments := []models.AppointmentWithUser{}
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, err
	}

	return appointments, nil
}
