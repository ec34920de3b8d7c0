package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobportal-admin/internal/apperrors"
	"github.com/justsurfingit/jobportal-admin/internal/dtos"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"github.com/justsurfingit/jobportal-admin/internal/middleware"
	"github.com/justsurfingit/jobportal-admin/internal/models"
	"github.com/justsurfingit/jobportal-admin/internal/response"
	"github.com/justsurfingit/jobportal-admin/internal/services"
)

type JobHandler struct {
	LLMService *services.LLMService
	JobService *services.JobService
	Logger     logger.Logger
}

func NewJobHandler(llm *services.LLMService, j *services.JobService, log logger.Logger) *JobHandler {
	return &JobHandler{
		LLMService: llm,
		JobService: j,
		Logger:     log,
	}
}

// ParseJob is the POST /jobs/extract endpoint
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.Logger, bindError(err))
		return
	}

	draft, err := h.LLMService.ExtractJobDetails(c.Request.Context(), req.RawHTML)
	if err != nil {
		response.Error(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    draft,
	})
}

// CreateJob is POST /save-job. The owner comes from the session; without
// one (sessions disabled) the body's adminemail is used.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.Logger, bindError(err))
		return
	}

	owner := models.NormalizeEmail(req.AdminEmail)
	if session, ok := middleware.SessionFrom(c); ok {
		if owner != "" && owner != session.Email {
			response.Error(c, h.Logger, apperrors.Forbidden("You can only post jobs for your own account."))
			return
		}
		owner = session.Email
		if req.Company == "" {
			req.Company = session.AdminName
		}
	}

	job, err := h.JobService.CreateJob(c.Request.Context(), owner, &req)
	if err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.JobCreatedResponse{Message: "Job Posted Successfully!", ID: job.SequenceID})
}

// ListJobs is GET /jobs?email=
func (h *JobHandler) ListJobs(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		if session, ok := middleware.SessionFrom(c); ok {
			email = session.Email
		}
	}
	if err := middleware.AuthorizeEmail(c, email); err != nil {
		response.Error(c, h.Logger, err)
		return
	}

	jobs, err := h.JobService.ListJobs(c.Request.Context(), email)
	if err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// DeleteJob is DELETE /jobs/:id, limited to the session's own postings.
func (h *JobHandler) DeleteJob(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, h.Logger, apperrors.Validation("Job id must be a number."))
		return
	}

	owner := ""
	if session, ok := middleware.SessionFrom(c); ok {
		owner = session.Email
	}

	if err := h.JobService.DeleteJob(c.Request.Context(), id, owner); err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dtos.MessageResponse{Message: "Job deleted successfully"})
}
