package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/jobportal-admin/internal/apperrors"
	"github.com/justsurfingit/jobportal-admin/internal/dtos"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"github.com/justsurfingit/jobportal-admin/internal/metrics"
	"github.com/justsurfingit/jobportal-admin/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobService struct {
	DB     *gorm.DB
	Logger logger.Logger
}

func NewJobService(db *gorm.DB, log logger.Logger) *JobService {
	return &JobService{
		DB:     db,
		Logger: log,
	}
}

// CreateJob stores a posting for adminEmail under the next sequence id of
// that admin. Counter bump and insert share one transaction.
func (s *JobService) CreateJob(ctx context.Context, adminEmail string, req *dtos.JobCreationRequest) (*models.Job, error) {
	adminEmail = models.NormalizeEmail(adminEmail)
	if adminEmail == "" {
		return nil, apperrors.MissingParameter("Admin email is required.")
	}

	job := &models.Job{
		AdminEmail:     adminEmail,
		Title:          req.Title,
		Company:        req.Company,
		Location:       req.Location,
		Salary:         req.Salary,
		Description:    req.Description,
		Qualifications: req.Qualifications,
		AboutCompany:   req.AboutCompany,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if job.Company == "" {
			name, err := adminName(tx, adminEmail)
			if err != nil {
				return err
			}
			job.Company = name
		}

		seq, err := nextSequenceID(tx, adminEmail)
		if err != nil {
			return err
		}
		job.SequenceID = seq

		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	metrics.JobsCreated.Inc()
	s.Logger.Info("job posted", map[string]interface{}{"admin_email": adminEmail, "id": job.SequenceID})
	return job, nil
}

// adminName returns the display name used as the default company. A
// missing account yields an empty name.
func adminName(tx *gorm.DB, email string) (string, error) {
	var admin models.Admin
	err := tx.Select("admin_name").Where("email = ?", email).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup admin name: %w", err)
	}
	return admin.AdminName, nil
}

// nextSequenceID increments the admin's counter row, seeding it from the
// highest existing posting on first use. The UPDATE holds the row lock until
// the surrounding transaction ends, so concurrent callers queue up.
func nextSequenceID(tx *gorm.DB, email string) (int64, error) {
	bump := func() (int64, error) {
		res := tx.Model(&models.JobSequence{}).
			Where("admin_email = ?", email).
			UpdateColumn("last_value", gorm.Expr("last_value + ?", 1))
		return res.RowsAffected, res.Error
	}

	affected, err := bump()
	if err != nil {
		return 0, fmt.Errorf("increment job sequence: %w", err)
	}

	if affected == 0 {
		var highest int64
		if err := tx.Model(&models.Job{}).
			Where("admin_email = ?", email).
			Select("COALESCE(MAX(sequence_id), 0)").
			Scan(&highest).Error; err != nil {
			return 0, fmt.Errorf("seed job sequence: %w", err)
		}

		seed := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.JobSequence{AdminEmail: email, LastValue: highest + 1})
		if seed.Error != nil {
			return 0, fmt.Errorf("seed job sequence: %w", seed.Error)
		}

		// another transaction seeded the row first
		if seed.RowsAffected == 0 {
			if affected, err = bump(); err != nil {
				return 0, fmt.Errorf("increment job sequence: %w", err)
			}
			if affected == 0 {
				return 0, fmt.Errorf("job sequence for %s vanished", email)
			}
		}
	}

	var seq models.JobSequence
	if err := tx.Where("admin_email = ?", email).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("read job sequence: %w", err)
	}
	return seq.LastValue, nil
}

// ListJobs returns the admin's postings ordered by id.
func (s *JobService) ListJobs(ctx context.Context, adminEmail string) ([]models.Job, error) {
	adminEmail = models.NormalizeEmail(adminEmail)
	if adminEmail == "" {
		return nil, apperrors.MissingParameter("Admin email is required.")
	}

	jobs := []models.Job{}
	if err := s.DB.WithContext(ctx).
		Where("admin_email = ?", adminEmail).
		Order("sequence_id ASC").
		Find(&jobs).Error; err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list jobs: %w", err))
	}
	return jobs, nil
}

// DeleteJob removes the first posting carrying sequenceID. An empty
// ownerEmail matches postings of any admin.
func (s *JobService) DeleteJob(ctx context.Context, sequenceID int64, ownerEmail string) error {
	q := s.DB.WithContext(ctx).Where("sequence_id = ?", sequenceID)
	if ownerEmail = models.NormalizeEmail(ownerEmail); ownerEmail != "" {
		q = q.Where("admin_email = ?", ownerEmail)
	}

	var job models.Job
	err := q.Order("id ASC").First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("Job not found")
	}
	if err != nil {
		return apperrors.Internal(fmt.Errorf("find job: %w", err))
	}

	if err := s.DB.WithContext(ctx).Delete(&models.Job{}, job.ID).Error; err != nil {
		return apperrors.Internal(fmt.Errorf("delete job: %w", err))
	}

	s.Logger.Info("job deleted", map[string]interface{}{"admin_email": job.AdminEmail, "id": sequenceID})
	return nil
}
