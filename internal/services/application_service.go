package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/jobportal-admin/internal/apperrors"
	"github.com/justsurfingit/jobportal-admin/internal/dtos"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"github.com/justsurfingit/jobportal-admin/internal/metrics"
	"github.com/justsurfingit/jobportal-admin/internal/models"
	"gorm.io/gorm"
)

// NewApplicationWindow is how far back an application still counts as new.
const NewApplicationWindow = 7 * 24 * time.Hour

// ApplicationService reads and reviews applications submitted through the
// applicant-facing system.
type ApplicationService struct {
	DB *gorm.DB
	// EmptyIsNotFound makes ListApplications fail when a company has none.
	EmptyIsNotFound bool
	Logger          logger.Logger
	now             func() time.Time
}

func NewApplicationService(db *gorm.DB, emptyIsNotFound bool, log logger.Logger) *ApplicationService {
	return &ApplicationService{
		DB:              db,
		EmptyIsNotFound: emptyIsNotFound,
		Logger:          log,
		now:             time.Now,
	}
}

// ResumeFile is a stored resume ready to be streamed.
type ResumeFile struct {
	Data        []byte
	ContentType string
	Name        string
}

func (s *ApplicationService) ListApplications(ctx context.Context, company string) ([]models.JobApplication, error) {
	if strings.TrimSpace(company) == "" {
		return nil, apperrors.MissingParameter("Company name is required.")
	}

	apps := []models.JobApplication{}
	if err := s.DB.WithContext(ctx).
		Where("company = ?", company).
		Order("applied_at DESC").
		Find(&apps).Error; err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list applications: %w", err))
	}

	if len(apps) == 0 && s.EmptyIsNotFound {
		return nil, apperrors.NotFound("No applications found for this company.")
	}
	return apps, nil
}

// UpdateApplicationStatus sets the review status. Any status may follow any
// other. A non-empty company limits the update to that company's
// applications; others are reported as not found.
func (s *ApplicationService) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus, company string) (*models.JobApplication, error) {
	if !status.Valid() {
		return nil, apperrors.InvalidStatus()
	}

	q := s.DB.WithContext(ctx).Model(&models.JobApplication{}).Where("id = ?", id)
	if company != "" {
		q = q.Where("company = ?", company)
	}
	res := q.Update("status", status)
	if res.Error != nil {
		return nil, apperrors.Internal(fmt.Errorf("update application status: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("Application not found.")
	}

	var app models.JobApplication
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, apperrors.Internal(fmt.Errorf("reload application: %w", err))
	}

	metrics.ApplicationStatusUpdates.WithLabelValues(string(status)).Inc()
	s.Logger.Info("application status updated", map[string]interface{}{"id": id, "status": status})
	return &app, nil
}

// GetResume returns the resume of the applicant's most recent application,
// limited to company when it is set.
func (s *ApplicationService) GetResume(ctx context.Context, email, company string) (*ResumeFile, error) {
	q := s.DB.WithContext(ctx).Where("email = ?", email)
	if company != "" {
		q = q.Where("company = ?", company)
	}

	var app models.JobApplication
	err := q.Order("applied_at DESC").First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("find application: %w", err))
	}
	if len(app.Resume.Data) == 0 {
		return nil, apperrors.NotFound("Resume not found")
	}

	contentType := app.Resume.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := app.Resume.Name
	if name == "" {
		name = "resume"
	}
	return &ResumeFile{Data: app.Resume.Data, ContentType: contentType, Name: name}, nil
}

// CountApplications returns the company's total and the ones received in the
// last seven days.
func (s *ApplicationService) CountApplications(ctx context.Context, company string) (*dtos.ApplicationCounts, error) {
	if strings.TrimSpace(company) == "" {
		return nil, apperrors.MissingParameter("Company name is required.")
	}

	var counts dtos.ApplicationCounts
	if err := s.DB.WithContext(ctx).Model(&models.JobApplication{}).
		Where("company = ?", company).
		Count(&counts.TotalApplications).Error; err != nil {
		return nil, apperrors.Internal(fmt.Errorf("count applications: %w", err))
	}

	since := s.now().Add(-NewApplicationWindow)
	if err := s.DB.WithContext(ctx).Model(&models.JobApplication{}).
		Where("company = ? AND applied_at >= ?", company, since).
		Count(&counts.NewApplications).Error; err != nil {
		return nil, apperrors.Internal(fmt.Errorf("count new applications: %w", err))
	}
	return &counts, nil
}
