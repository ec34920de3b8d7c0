package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobportal-admin/internal/apperrors"
	"github.com/justsurfingit/jobportal-admin/internal/dtos"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"github.com/justsurfingit/jobportal-admin/internal/middleware"
	"github.com/justsurfingit/jobportal-admin/internal/response"
	"github.com/justsurfingit/jobportal-admin/internal/services"
)

type AdminHandler struct {
	AdminService *services.AdminService
	Logger       logger.Logger
}

func NewAdminHandler(a *services.AdminService, log logger.Logger) *AdminHandler {
	return &AdminHandler{AdminService: a, Logger: log}
}

// Register is POST /register-admin
func (h *AdminHandler) Register(c *gin.Context) {
	var req dtos.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.Logger, bindError(err))
		return
	}

	if _, err := h.AdminService.Register(c.Request.Context(), &req, c.ClientIP()); err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.MessageResponse{Message: "Admin registered successfully."})
}

// Login is POST /login-admin
func (h *AdminHandler) Login(c *gin.Context) {
	var req dtos.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.Logger, bindError(err))
		return
	}

	resp, err := h.AdminService.Authenticate(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout is POST /logout-admin
func (h *AdminHandler) Logout(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		response.Error(c, h.Logger, apperrors.Unauthorized("Authorization header is required"))
		return
	}

	if err := h.AdminService.Logout(c.Request.Context(), session); err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dtos.MessageResponse{Message: "Logged out successfully."})
}

// ownEmail returns the :email path parameter once the session may use it.
func (h *AdminHandler) ownEmail(c *gin.Context) (string, bool) {
	email := c.Param("email")
	if err := middleware.AuthorizeEmail(c, email); err != nil {
		response.Error(c, h.Logger, err)
		return "", false
	}
	return email, true
}

// GetProfile is GET /admin/:email
func (h *AdminHandler) GetProfile(c *gin.Context) {
	email, ok := h.ownEmail(c)
	if !ok {
		return
	}

	admin, err := h.AdminService.GetProfile(c.Request.Context(), email)
	if err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, admin)
}

// UpdateProfile is PUT /admin/update/:email
func (h *AdminHandler) UpdateProfile(c *gin.Context) {
	email, ok := h.ownEmail(c)
	if !ok {
		return
	}

	var req dtos.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.Logger, bindError(err))
		return
	}

	admin, err := h.AdminService.UpdateProfile(c.Request.Context(), email, &req)
	if err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account updated successfully", "admin": admin})
}

// ChangePassword is PUT /admin/update-password/:email
func (h *AdminHandler) ChangePassword(c *gin.Context) {
	email, ok := h.ownEmail(c)
	if !ok {
		return
	}

	var req dtos.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.Logger, bindError(err))
		return
	}

	if err := h.AdminService.ChangePassword(c.Request.Context(), email, &req); err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dtos.MessageResponse{Message: "Password updated successfully."})
}

// DeleteAccount is DELETE /admin/delete/:email. The session is revoked as
// well so the deleted admin's token stops working at once.
func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	email, ok := h.ownEmail(c)
	if !ok {
		return
	}

	if err := h.AdminService.DeleteAccount(c.Request.Context(), email); err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	if session, ok := middleware.SessionFrom(c); ok {
		if err := h.AdminService.Logout(c.Request.Context(), session); err != nil {
			h.Logger.Warn("failed to revoke session of deleted admin", map[string]interface{}{"email": email, "error": err.Error()})
		}
	}
	c.JSON(http.StatusOK, dtos.MessageResponse{Message: "Account deleted successfully"})
}
