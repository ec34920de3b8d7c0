package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NormalizeEmail is the canonical form of an admin email: trimmed and
// lower-cased. Accounts, job owners and sessions all store this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Admin is a company representative who posts jobs and reviews applications.
type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	AdminName      string `gorm:"not null" json:"adminName"`
	Email          string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string `gorm:"not null" json:"-"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Job is a posting. (AdminEmail, SequenceID) is unique; the surrogate ID
// never leaves the store.
type Job struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	SequenceID     int64   `gorm:"not null;uniqueIndex:idx_jobs_owner_seq,priority:2" json:"id"`
	AdminEmail     string  `gorm:"not null;uniqueIndex:idx_jobs_owner_seq,priority:1" json:"adminemail"`
	Title          string  `gorm:"not null" json:"title"`
	Company        string  `json:"company"`
	Location       string  `json:"location"`
	Salary         float64 `json:"salary"`
	Description    string  `gorm:"type:text" json:"description"`
	Qualifications string  `gorm:"type:text" json:"qualifications"`
	AboutCompany   string  `gorm:"type:text" json:"aboutCompany"`
}

// JobSequence holds the last sequence id handed out for one admin.
type JobSequence struct {
	AdminEmail string `gorm:"primaryKey"`
	LastValue  int64  `gorm:"not null;default:0"`
	UpdatedAt  time.Time
}

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "Pending"
	StatusReviewed ApplicationStatus = "Reviewed"
	StatusAccepted ApplicationStatus = "Accepted"
	StatusRejected ApplicationStatus = "Rejected"
)

// Valid reports whether s is one of the four review states.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

type Education struct {
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	GraduationYear string `json:"graduationYear"`
}

// Resume is the uploaded file. Data is never serialized to JSON.
type Resume struct {
	Data        []byte `json:"-"`
	ContentType string `json:"contentType,omitempty"`
	Name        string `json:"name,omitempty"`
}

// JobApplication is written by the applicant-facing system and only read or
// status-updated here. Company is matched against Admin.AdminName.
type JobApplication struct {
	ID            string            `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	Username      string            `gorm:"not null" json:"username"`
	Email         string            `gorm:"not null;index" json:"email"`
	FullName      string            `json:"fullName"`
	ContactNumber string            `json:"contactNumber"`
	Education     Education         `gorm:"embedded;embeddedPrefix:education_" json:"education"`
	Skills        []string          `gorm:"serializer:json" json:"skills"`
	JobID         string            `gorm:"not null" json:"jobId"`
	JobTitle      string            `gorm:"not null" json:"jobTitle"`
	Company       string            `gorm:"not null;index" json:"company"`
	AppliedAt     time.Time         `gorm:"not null;index" json:"appliedAt"`
	Status        ApplicationStatus `gorm:"type:varchar(16);not null;default:'Pending'" json:"status"`
	Resume        Resume            `gorm:"embedded;embeddedPrefix:resume_" json:"resume"`
	HasResume     bool              `gorm:"-" json:"hasResume"`
}

// BeforeCreate fills the store-side defaults.
func (a *JobApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	if a.Skills == nil {
		a.Skills = []string{}
	}
	return nil
}

// AfterFind derives HasResume so list views can show a download link
// without shipping the bytes.
func (a *JobApplication) AfterFind(tx *gorm.DB) error {
	a.HasResume = len(a.Resume.Data) > 0
	return nil
}

// AllModels lists every table for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{&Admin{}, &Job{}, &JobSequence{}, &JobApplication{}}
}
