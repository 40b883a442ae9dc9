package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/turfbook/turfbook_backend/controllers"
	"github.com/turfbook/turfbook_backend/middleware"
	"github.com/turfbook/turfbook_backend/models"
	"github.com/turfbook/turfbook_backend/repositories"
)

// RegisterUserRoutes mounts every account and appointment endpoint under
// /api/v1/user.
func RegisterUserRoutes(e *echo.Echo, db *mongo.Client) {
	authController := controllers.NewAuthController(db)
	passwordController := controllers.NewPasswordController(db)
	userRepo := repositories.NewUserRepository(db)
	userController := controllers.NewUserController(db, userRepo)
	appointmentController := controllers.NewAppointmentController(db)

	api := e.Group("/api/v1/user")

	// Public authentication routes
	api.POST("/register", authController.Register)
	api.POST("/login", authController.Login)
	api.POST("/initiate-forgot-password", passwordController.ForgotPassword)
	api.POST("/verify-otp-generate-password", passwordController.VerifyOTPAndResetPassword)

	// Routes requiring a valid bearer token
	protected := api.Group("")
	protected.Use(middleware.JWTMiddleware())

	protected.POST("/update-profile", userController.UpdateProfile)
	protected.PATCH("/update-avatar", userController.UpdateAvatar)
	protected.PATCH("/deactivate-account", userController.DeactivateAccount)
	protected.POST("/appointment-confirmation", appointmentController.ConfirmAppointment)
	protected.GET("/appointments", appointmentController.ListAppointments)
	protected.GET("/appointment/:id", appointmentController.GetAppointmentByID)

	// Admin-only routes
	admin := api.Group("")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	admin.GET("/list-users", userController.ListUsers)
	admin.PATCH("/appointment-approve/:id", appointmentController.ApproveAppointment)
}
