package controllers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/turfbook/turfbook_backend/config"
	"github.com/turfbook/turfbook_backend/middleware"
	"github.com/turfbook/turfbook_backend/models"
	"github.com/turfbook/turfbook_backend/repositories"
	"github.com/turfbook/turfbook_backend/utils"
)

// UserController handles profile and account lifecycle endpoints
type UserController struct {
	DB       *mongo.Client
	userRepo *repositories.UserRepository
}

// NewUserController creates a new user controller
func NewUserController(db *mongo.Client, userRepo *repositories.UserRepository) *UserController {
	return &UserController{DB: db, userRepo: userRepo}
}

// UpdateProfile performs a partial update of name, email and phone. The
// caller re-authenticates with their current password.
func (uc *UserController) UpdateProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(uc.DB, "users")

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

	var user models.User
	err = collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Success: false,
				Message: "User not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to find user",
		})
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid request body",
		})
	}

	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Current password is required",
		})
	}

	if err := utils.CheckPassword(req.Password, user.Password); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Success: false,
			Message: "Invalid password",
		})
	}

	update := bson.M{
		"$set": bson.M{
			"updatedAt": time.Now(),
		},
	}

	// Only overwrite fields a new value was supplied for
	if req.Name != "" && req.Name != user.Name {
		name := utils.SanitizeInput(req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, models.Response{
				Success: false,
				Message: "Username cannot be empty",
			})
		}
		var existing models.User
		err := collection.FindOne(ctx, bson.M{"name": name}).Decode(&existing)
		if err == nil && existing.ID != userID {
			return c.JSON(http.StatusBadRequest, models.Response{
				Success: false,
				Message: "Username is already taken",
			})
		}
		update["$set"].(bson.M)["name"] = name
	}

	if req.Email != "" && req.Email != user.Email {
		email, err := utils.SanitizeEmail(req.Email)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Success: false,
				Message: "Invalid email format",
			})
		}
		var existing models.User
		err = collection.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
		if err == nil && existing.ID != userID {
			return c.JSON(http.StatusBadRequest, models.Response{
				Success: false,
				Message: "Email already in use",
			})
		}
		update["$set"].(bson.M)["email"] = email
	}

	if req.Phone != "" && req.Phone != user.Phone {
		phone, err := utils.SanitizePhone(req.Phone)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Success: false,
				Message: "Invalid phone number format",
			})
		}
		var existing models.User
		err = collection.FindOne(ctx, bson.M{"phone": phone}).Decode(&existing)
		if err == nil && existing.ID != userID {
			return c.JSON(http.StatusBadRequest, models.Response{
				Success: false,
				Message: "Phone number already in use",
			})
		}
		update["$set"].(bson.M)["phone"] = phone
	}

	if len(update["$set"].(bson.M)) > 1 { // 1 because updatedAt is always set
		_, err = collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
		if err != nil {
			// A concurrent update can claim the identifier between the
			// checks above and here; the unique index rejects the loser.
			if mongo.IsDuplicateKeyError(err) {
				return c.JSON(http.StatusBadRequest, models.Response{
					Success: false,
					Message: "Username, email or phone is already in use",
				})
			}
			return c.JSON(http.StatusInternalServerError, models.Response{
				Success: false,
				Message: "Failed to update profile",
			})
		}
	}

	var updatedUser models.User
	err = collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&updatedUser)
	if err != nil {
		return c.JSON(http.StatusOK, models.Response{
			Success: true,
			Message: "Profile updated successfully",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Profile updated successfully",
		Data:    updatedUser.Public(),
	})
}

// UpdateAvatar overwrites the stored avatar tag with a member of the fixed set
func (uc *UserController) UpdateAvatar(c echo.Context) error {
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

	var req models.UpdateAvatarRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid request body",
		})
	}

	if !models.IsValidAvatar(req.Avatar) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: "Invalid avatar selection",
		})
	}

	if err := uc.userRepo.UpdateAvatar(userID, req.Avatar); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to update avatar",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Avatar updated successfully",
		Data: map[string]interface{}{
			"avatar": req.Avatar,
		},
	})
}

// DeactivateAccount soft-deletes the caller's account. The record stays in
// the store; repeating the call leaves the flag set and still succeeds.
func (uc *UserController) DeactivateAccount(c echo.Context) error {
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

	if err := uc.userRepo.SoftDelete(userID); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to deactivate account",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Account deactivated successfully",
	})
}

// ListUsers returns all user records, soft-deleted ones included. Admin-only;
// the role guard runs in the route middleware.
func (uc *UserController) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	skip := (page - 1) * limit

	collection := config.GetCollection(uc.DB, "users")

	opts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to fetch users",
		})
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to decode users",
		})
	}

	totalCount, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Failed to count users",
		})
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(limit)))

	return c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Users retrieved successfully",
		Data: map[string]interface{}{
			"users": users,
			"pagination": map[string]interface{}{
				"totalCount": totalCount,
				"page":       page,
				"limit":      limit,
				"totalPages": totalPages,
			},
		},
	})
}
