package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"invoicing/internal/apperr"     // Error kinds
	"invoicing/internal/middleware" // Authenticated user
	"invoicing/internal/service"    // Auth use cases
)

// RegisterHandler creates an account and returns it with a token
func RegisterHandler(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		session, err := auth.Register(c.Request.Context(), service.RegisterInput{
			Email:       req.Email,       // Login email
			Password:    req.Password,    // Plain password, hashed by the service
			Name:        req.Name,        // Display name
			CompanyName: req.CompanyName, // Optional company
		})
		if err != nil {
			respondError(c, err) // Duplicate email or validation failure
			return
		}
		c.JSON(http.StatusCreated, session) // Return user and token
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		session, err := auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err) // Invalid credentials
			return
		}
		c.JSON(http.StatusOK, session) // Return user and token
	}
}

// MeHandler returns the authenticated user
func MeHandler(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Me(c.Request.Context(), middleware.UserID(c))
		if apperr.Is(err, apperr.KindNotFound) {
			respondError(c, apperr.Unauthorized("User not found")) // Token outlived the account
			return
		} else if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateProfileHandler changes the billing profile of the authenticated user
func UpdateProfileHandler(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req profileRequest // Only present fields are changed
		if !bindJSON(c, &req) {
			return
		}
		user, err := auth.UpdateProfile(c.Request.Context(), middleware.UserID(c), service.ProfileInput{
			Name:        req.Name,
			CompanyName: req.CompanyName,
			Address:     req.Address,
			Phone:       req.Phone,
			LogoURL:     req.LogoURL,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
