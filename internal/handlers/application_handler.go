package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobportal-admin/internal/dtos"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"github.com/justsurfingit/jobportal-admin/internal/middleware"
	"github.com/justsurfingit/jobportal-admin/internal/models"
	"github.com/justsurfingit/jobportal-admin/internal/response"
	"github.com/justsurfingit/jobportal-admin/internal/services"
)

type ApplicationHandler struct {
	ApplicationService *services.ApplicationService
	Logger             logger.Logger
}

func NewApplicationHandler(a *services.ApplicationService, log logger.Logger) *ApplicationHandler {
	return &ApplicationHandler{ApplicationService: a, Logger: log}
}

// company reads ?company=, falling back to the session admin's name.
func (h *ApplicationHandler) company(c *gin.Context) (string, bool) {
	company := c.Query("company")
	if company == "" {
		if session, ok := middleware.SessionFrom(c); ok {
			company = session.AdminName
		}
	}
	if err := middleware.AuthorizeCompany(c, company); err != nil {
		response.Error(c, h.Logger, err)
		return "", false
	}
	return company, true
}

// ListApplications is GET /job-applications?company=
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	company, ok := h.company(c)
	if !ok {
		return
	}

	apps, err := h.ApplicationService.ListApplications(c.Request.Context(), company)
	if err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// UpdateStatus is PUT /job-applications/:id. A session can only review
// applications sent to its own company.
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req dtos.UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.Logger, bindError(err))
		return
	}

	company := ""
	if session, ok := middleware.SessionFrom(c); ok {
		company = session.AdminName
	}

	app, err := h.ApplicationService.UpdateApplicationStatus(c.Request.Context(), c.Param("id"), models.ApplicationStatus(req.Status), company)
	if err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application status updated.", "application": app})
}

// GetResume is GET /resume/:email. A session only sees resumes sent to
// its own company.
func (h *ApplicationHandler) GetResume(c *gin.Context) {
	company := ""
	if session, ok := middleware.SessionFrom(c); ok {
		company = session.AdminName
	}

	resume, err := h.ApplicationService.GetResume(c.Request.Context(), c.Param("email"), company)
	if err != nil {
		response.Error(c, h.Logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resume.Name))
	c.Data(http.StatusOK, resume.ContentType, resume.Data)
}

// CountApplications is GET /applications-count?company=
func (h *ApplicationHandler) CountApplications(c *gin.Context) {
	company, ok := h.company(c)
	if !ok {
		return
	}

	counts, err := h.ApplicationService.CountApplications(c.Request.Context(), company)
	if err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}
