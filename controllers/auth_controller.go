package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/turfbook/turfbook_backend/config"
	"github.com/turfbook/turfbook_backend/middleware"
	"github.com/turfbook/turfbook_backend/models"
	"github.com/turfbook/turfbook_backend/utils"
)

// AuthController contains authentication logic
type AuthController struct {
	DB            *mongo.Client
	logger        *log.Logger
	loginAttempts map[string]struct {
		count       int
		lastAttempt time.Time
	}
	loginAttemptsMu sync.RWMutex
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Client) *AuthController {
	ac := &AuthController{
		DB:     db,
		logger: log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
		loginAttempts: make(map[string]struct {
			count       int
			lastAttempt time.Time
		}),
	}

	go ac.startLoginAttemptCleanupRoutine()

	return ac
}

// Register creates a new user account. The identifier is accepted either as
// an explicit email/phone pair (exactly one set) or as a type tag plus value.
func (ac *AuthController) Register(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(ac.DB, "users")

	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid request body",
		})
	}

	if req.Password != req.ConfirmPassword {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Passwords do not match",
		})
	}

	// Resolve the type/value form into the explicit fields
	if req.Type != "" {
		switch req.Type {
		case "email":
			req.Email = req.Value
		case "phone":
			req.Phone = req.Value
		default:
			return c.JSON(http.StatusBadRequest, models.Response{
				Success: false,
				Message: "Identifier type must be either 'email' or 'phone'",
			})
		}
	}

	if req.Name == "" || req.Password == "" || (req.Email == "" && req.Phone == "") {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Username, password, and either email or phone are required",
		})
	}

	if req.Email != "" && req.Phone != "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Please provide either an email or a phone number, not both",
		})
	}

	req.Name = utils.SanitizeInput(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Username, password, and either email or phone are required",
		})
	}

	if req.Email != "" {
		email, err := utils.SanitizeEmail(req.Email)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Success: false,
				Message: "Invalid email format",
			})
		}
		req.Email = email
	}

	if req.Phone != "" {
		phone, err := utils.SanitizePhone(req.Phone)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Success: false,
				Message: "Invalid phone number format",
			})
		}
		req.Phone = phone
	}

	// Check if username is already taken
	count, err := collection.CountDocuments(ctx, bson.M{"name": req.Name})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to check existing users",
		})
	}
	if count > 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Username is already taken",
		})
	}

	if req.Email != "" {
		count, err = collection.CountDocuments(ctx, bson.M{"email": req.Email})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Success: false,
				Message: "Failed to check existing users",
			})
		}
		if count > 0 {
			return c.JSON(http.StatusBadRequest, models.Response{
				Success: false,
				Message: "Email is already registered",
			})
		}
	}

	if req.Phone != "" {
		count, err = collection.CountDocuments(ctx, bson.M{"phone": req.Phone})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Success: false,
				Message: "Failed to check existing users",
			})
		}
		if count > 0 {
			return c.JSON(http.StatusBadRequest, models.Response{
				Success: false,
				Message: "Phone number is already registered",
			})
		}
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to process password",
		})
	}

	now := time.Now()
	user := models.User{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  hashedPassword,
		Role:      models.RoleUser,
		Avatar:    "",
		Deleted:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := collection.InsertOne(ctx, user)
	if err != nil {
		// A concurrent registration can win the race past the checks above;
		// the unique index rejects the losing writer.
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Success: false,
				Message: "Username, email or phone is already registered",
			})
		}
		ac.logger.Printf("Failed to insert user: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to create account",
		})
	}

	user.ID = result.InsertedID.(primitive.ObjectID)

	token, err := middleware.GenerateJWT(user.ID.Hex(), user.Name, user.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Success: true,
		Message: "Account created successfully",
		Data: map[string]interface{}{
			"token": token,
			"user":  user.Public(),
		},
	})
}

// Login authenticates a user by email or phone and issues a session token
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(ac.DB, "users")

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid request body",
		})
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.Phone
	}
	if identifier == "" {
		identifier = req.Value
	}

	if req.Password == "" || identifier == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Password and either email or phone are required",
		})
	}

	ac.loginAttemptsMu.RLock()
	attempts, exists := ac.loginAttempts[identifier]
	ac.loginAttemptsMu.RUnlock()

	if exists && attempts.count >= 5 && time.Since(attempts.lastAttempt) < 30*time.Minute {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Success: false,
			Message: "Too many failed login attempts. Please try again later.",
		})
	}

	// Find non-deleted user matching the identifier on either field
	var user models.User
	err := collection.FindOne(ctx, bson.M{
		"deleted": false,
		"$or": []bson.M{
			{"email": identifier},
			{"phone": identifier},
		},
	}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Success: false,
				Message: "User not found, please register first",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to find user",
		})
	}

	err = utils.CheckPassword(req.Password, user.Password)
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			ac.recordFailedAttempt(identifier, attempts.count, exists)
			return c.JSON(http.StatusUnauthorized, models.Response{
				Success: false,
				Message: "Invalid credentials",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to verify credentials",
		})
	}

	ac.loginAttemptsMu.Lock()
	delete(ac.loginAttempts, identifier)
	ac.loginAttemptsMu.Unlock()

	token, err := middleware.GenerateJWT(user.ID.Hex(), user.Name, user.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Login successful",
		Data: map[string]interface{}{
			"token": token,
			"user":  user.Public(),
		},
	})
}

func (ac *AuthController) recordFailedAttempt(identifier string, previous int, existed bool) {
	ac.loginAttemptsMu.Lock()
	defer ac.loginAttemptsMu.Unlock()

	count := 1
	if existed {
		count = previous + 1
	}
	ac.loginAttempts[identifier] = struct {
		count       int
		lastAttempt time.Time
	}{count: count, lastAttempt: time.Now()}
}

// startLoginAttemptCleanupRoutine drops stale failed-attempt counters
func (ac *AuthController) startLoginAttemptCleanupRoutine() {
	for {
		time.Sleep(30 * time.Minute)
		cutoff := time.Now().Add(-30 * time.Minute)

		ac.loginAttemptsMu.Lock()
		for identifier, attempt := range ac.loginAttempts {
			if attempt.lastAttempt.Before(cutoff) {
				delete(ac.loginAttempts, identifier)
			}
		}
		ac.loginAttemptsMu.Unlock()
	}
}
