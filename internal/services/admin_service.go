package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/jobportal-admin/internal/apperrors"
	"github.com/justsurfingit/jobportal-admin/internal/auth"
	"github.com/justsurfingit/jobportal-admin/internal/captcha"
	"github.com/justsurfingit/jobportal-admin/internal/config"
	"github.com/justsurfingit/jobportal-admin/internal/dtos"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"github.com/justsurfingit/jobportal-admin/internal/metrics"
	"github.com/justsurfingit/jobportal-admin/internal/models"
	"gorm.io/gorm"
)

// AdminService owns admin accounts: registration, login, profile and
// password maintenance, account deletion.
type AdminService struct {
	DB           *gorm.DB
	Verifier     captcha.Verifier
	Hasher       *auth.PasswordHasher
	Tokens       *auth.TokenManager
	Revocations  *auth.RevocationStore
	DeletePolicy string
	Logger       logger.Logger
}

func NewAdminService(db *gorm.DB, verifier captcha.Verifier, hasher *auth.PasswordHasher, tokens *auth.TokenManager,
	revocations *auth.RevocationStore, deletePolicy string, log logger.Logger) *AdminService {
	if deletePolicy == "" {
		deletePolicy = config.DeletePolicyOrphan
	}
	return &AdminService{
		DB:           db,
		Verifier:     verifier,
		Hasher:       hasher,
		Tokens:       tokens,
		Revocations:  revocations,
		DeletePolicy: deletePolicy,
		Logger:       log,
	}
}

func (s *AdminService) verifyBotCheck(ctx context.Context, token, remoteIP string) error {
	ok, err := s.Verifier.Verify(ctx, token, remoteIP)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("bot check: %w", err))
	}
	if !ok {
		return apperrors.VerificationFailed()
	}
	return nil
}

func (s *AdminService) findByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	err := s.DB.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Admin not found")
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("find admin: %w", err))
	}
	return &admin, nil
}

// Register creates an account after the bot check passes.
func (s *AdminService) Register(ctx context.Context, req *dtos.RegisterRequest, remoteIP string) (*models.Admin, error) {
	if err := s.verifyBotCheck(ctx, req.CaptchaToken, remoteIP); err != nil {
		return nil, err
	}

	email := models.NormalizeEmail(req.Email)
	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.Admin{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, apperrors.Internal(fmt.Errorf("check existing admin: %w", err))
	}
	if existing > 0 {
		return nil, apperrors.DuplicateAccount()
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	admin := &models.Admin{
		AdminName:    strings.TrimSpace(req.AdminName),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.DB.WithContext(ctx).Create(admin).Error; err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.DuplicateAccount()
		}
		return nil, apperrors.Internal(fmt.Errorf("create admin: %w", err))
	}

	metrics.AdminsRegistered.Inc()
	s.Logger.Info("admin registered", map[string]interface{}{"email": admin.Email})
	return admin, nil
}

// Authenticate checks credentials and issues a session token. Unknown email
// and wrong password fail identically.
func (s *AdminService) Authenticate(ctx context.Context, req *dtos.LoginRequest, remoteIP string) (*dtos.LoginResponse, error) {
	if err := s.verifyBotCheck(ctx, req.CaptchaToken, remoteIP); err != nil {
		metrics.LoginAttempts.WithLabelValues("bot_check_failed").Inc()
		return nil, err
	}

	admin, err := s.findByEmail(ctx, req.Email)
	if errors.Is(err, apperrors.ErrNotFound) {
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		return nil, apperrors.InvalidCredentials()
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.Hasher.Matches(admin.PasswordHash, req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		return nil, apperrors.InvalidCredentials()
	}

	token, session, err := s.Tokens.Issue(admin.Email, admin.AdminName)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return &dtos.LoginResponse{
		Admin:     dtos.AdminSummary{AdminName: admin.AdminName, Email: admin.Email},
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout revokes the session's token until it would have expired.
func (s *AdminService) Logout(ctx context.Context, session *auth.Session) error {
	if err := s.Revocations.Revoke(ctx, session); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *AdminService) GetProfile(ctx context.Context, email string) (*models.Admin, error) {
	return s.findByEmail(ctx, email)
}

// UpdateProfile writes only the fields that were sent.
func (s *AdminService) UpdateProfile(ctx context.Context, email string, req *dtos.UpdateProfileRequest) (*models.Admin, error) {
	admin, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.ProfilePicture != nil {
		updates["profile_picture"] = *req.ProfilePicture
	}
	if len(updates) == 0 {
		return admin, nil
	}

	if err := s.DB.WithContext(ctx).Model(admin).Updates(updates).Error; err != nil {
		return nil, apperrors.Internal(fmt.Errorf("update admin profile: %w", err))
	}
	return s.findByEmail(ctx, email)
}

// ChangePassword rejects a new password equal to the stored one before it
// looks at the current password.
func (s *AdminService) ChangePassword(ctx context.Context, email string, req *dtos.ChangePasswordRequest) error {
	admin, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	same, err := s.Hasher.Matches(admin.PasswordHash, req.NewPassword)
	if err != nil {
		return apperrors.Internal(err)
	}
	if same {
		return apperrors.SamePassword()
	}

	ok, err := s.Hasher.Matches(admin.PasswordHash, req.CurrentPassword)
	if err != nil {
		return apperrors.Internal(err)
	}
	if !ok {
		return apperrors.IncorrectCurrentPassword()
	}

	hash, err := s.Hasher.Hash(req.NewPassword)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.DB.WithContext(ctx).Model(admin).Update("password_hash", hash).Error; err != nil {
		return apperrors.Internal(fmt.Errorf("update password: %w", err))
	}

	s.Logger.Info("admin password changed", map[string]interface{}{"email": email})
	return nil
}

// DeleteAccount removes the admin. Under the cascade policy the admin's job
// postings and sequence counter go in the same transaction. Applications are
// never touched.
func (s *AdminService) DeleteAccount(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("email = ?", email).Delete(&models.Admin{})
		if res.Error != nil {
			return apperrors.Internal(fmt.Errorf("delete admin: %w", res.Error))
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("Admin not found")
		}

		if s.DeletePolicy != config.DeletePolicyCascade {
			return nil
		}
		if err := tx.Where("admin_email = ?", email).Delete(&models.Job{}).Error; err != nil {
			return apperrors.Internal(fmt.Errorf("delete admin jobs: %w", err))
		}
		if err := tx.Where("admin_email = ?", email).Delete(&models.JobSequence{}).Error; err != nil {
			return apperrors.Internal(fmt.Errorf("delete job sequence: %w", err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.Info("admin account deleted", map[string]interface{}{"email": email, "policy": s.DeletePolicy})
	return nil
}
