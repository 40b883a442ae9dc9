// controllers/password_controller.go
package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"

	"github.com/turfbook/turfbook_backend/config"
	"github.com/turfbook/turfbook_backend/models"
	"github.com/turfbook/turfbook_backend/utils"
)

// otpLength and otpTTL match the codes the reset UI expects.
const (
	otpLength = 6
	otpTTL    = 5 * time.Minute
)

// PasswordController handles the OTP password reset flow
type PasswordController struct {
	DB  *mongo.Client
	sms *utils.SMSService
}

// NewPasswordController creates a new password controller
func NewPasswordController(db *mongo.Client) *PasswordController {
	return &PasswordController{
		DB:  db,
		sms: utils.NewSMSService(),
	}
}

// ForgotPassword initiates the password reset process: it generates a
// one-time code scoped to the identifier and dispatches it out-of-band.
func (pc *PasswordController) ForgotPassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Identifier type and value are required",
		})
	}

	var err error
	switch req.Type {
	case "email":
		req.Value, err = utils.SanitizeEmail(req.Value)
	case "phone":
		req.Value, err = utils.SanitizePhone(req.Value)
	}
	if err != nil || req.Value == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid identifier value",
		})
	}

	if err := utils.ValidateOTPAttempts(req.Value, config.GetRedisClient()); err != nil {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Success: false,
			Message: "Too many reset requests. Please try again later.",
		})
	}

	// The identifier must belong to a non-deleted account
	collection := config.GetCollection(pc.DB, "users")
	var user models.User
	err = collection.FindOne(ctx, bson.M{req.Type: req.Value, "deleted": false}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Success: false,
				Message: "No account associated with this " + req.Type,
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to check user",
		})
	}

	otp, err := utils.GenerateOTP(otpLength)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to generate OTP",
		})
	}

	now := time.Now()
	record := models.PasswordOTP{
		Value:     req.Value,
		OTP:       otp,
		ExpiresAt: now.Add(otpTTL),
		Used:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	otpCollection := config.GetCollection(pc.DB, "password_otps")
	if _, err := otpCollection.InsertOne(ctx, record); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to save OTP information",
		})
	}

	if err := pc.dispatchOTP(req.Type, req.Value, user.Name, otp); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to send OTP",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Password reset OTP sent successfully",
		Data: map[string]interface{}{
			"value": utils.MaskIdentifier(req.Value),
		},
	})
}

// VerifyOTPAndResetPassword consumes an unused OTP and stores a new password.
// Expiry is rechecked against the wall clock here; the store's TTL reaper may
// lag past the nominal expiry.
func (pc *PasswordController) VerifyOTPAndResetPassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid request body",
		})
	}

	if req.Value == "" || req.OTP == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "OTP, new password and identifier value are required",
		})
	}

	otpCollection := config.GetCollection(pc.DB, "password_otps")
	var record models.PasswordOTP
	err := otpCollection.FindOne(ctx, bson.M{
		"value": req.Value,
		"otp":   req.OTP,
		"used":  false,
	}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Success: false,
				Message: "Invalid OTP",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to verify OTP",
		})
	}

	if time.Now().After(record.ExpiresAt) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Success: false,
			Message: "OTP has expired. Please request a new one",
		})
	}

	collection := config.GetCollection(pc.DB, "users")
	var user models.User
	err = collection.FindOne(ctx, bson.M{
		"deleted": false,
		"$or": []bson.M{
			{"email": req.Value},
			{"phone": req.Value},
		},
	}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Success: false,
				Message: "User not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to retrieve user",
		})
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to hash password",
		})
	}

	_, err = collection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set": bson.M{
			"password":  hashedPassword,
			"updatedAt": time.Now(),
		},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to update password",
		})
	}

	// A used record can never authorize a second reset
	_, err = otpCollection.UpdateOne(ctx, bson.M{"_id": record.ID}, bson.M{
		"$set": bson.M{
			"used":      true,
			"updatedAt": time.Now(),
		},
	})
	if err != nil {
		log.Printf("Failed to mark OTP as used: %v", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Password reset successfully",
	})
}

// dispatchOTP sends the code through the channel matching the identifier
// type. Without SMTP/SMS configuration the code is logged so the flow stays
// usable in development.
func (pc *PasswordController) dispatchOTP(identifierType, value, name, otp string) error {
	if identifierType == "phone" {
		return pc.sms.SendOTP(value, otp)
	}

	smtpHost := os.Getenv("SMTP_HOST")
	if smtpHost == "" {
		log.Printf("SMTP not configured; OTP for %s: %s", utils.MaskIdentifier(value), otp)
		return nil
	}

	return sendOTPByEmail(value, name, otp)
}

// sendOTPByEmail sends the OTP to the user's email over SMTP
func sendOTPByEmail(email, name, otp string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPortStr := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	fromEmail := os.Getenv("FROM_EMAIL")

	if smtpHost == "" || smtpPortStr == "" || smtpUser == "" || smtpPass == "" || fromEmail == "" {
		return fmt.Errorf("missing SMTP configuration")
	}

	smtpPort, err := strconv.Atoi(smtpPortStr)
	if err != nil {
		return fmt.Errorf("invalid SMTP port: %v", err)
	}

	subject := "Password Reset OTP"
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Reset Your Password</h2>
			<p>Hello %s,</p>
			<p>You have requested to reset your password. Please use the following code to verify your request:</p>
			<h3 style="background-color: #f0f0f0; padding: 10px; font-size: 24px; letter-spacing: 5px; text-align: center;">%s</h3>
			<p>This code will expire in 5 minutes.</p>
			<p>If you did not request a password reset, please ignore this email.</p>
		</body>
		</html>
	`, name, otp)

	m := gomail.NewMessage()
	m.SetHeader("From", fromEmail)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}
