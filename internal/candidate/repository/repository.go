package repository

import (
	"time"

	"hrflow-backend/internal/candidate/domain"
)

// CandidateRepository defines data access for candidates.
type CandidateRepository interface {
	Create(candidate *domain.Candidate) error
	FindByID(id uint) (*domain.Candidate, error)
	FindByEmail(email string) (*domain.Candidate, error)
	Update(candidate *domain.Candidate) error
	FindAllWithEmail() ([]domain.Candidate, error)

	// FindActiveForManager resolves which candidate a manager's reply is
	// about. An exact thread match wins; otherwise the newest candidate for
	// the manager still in an active status.
	FindActiveForManager(managerID, threadID string) (*domain.Candidate, error)

	// FindAutoRejectTargets returns candidates uploaded before the cutoff,
	// still in Received status, scored below the threshold.
	FindAutoRejectTargets(cutoff time.Time, threshold float64) ([]domain.Candidate, error)
}

// ManagerRepository defines data access for hiring managers.
type ManagerRepository interface {
	Create(manager *domain.HiringManager) error
	FindByID(id string) (*domain.HiringManager, error)
	FindByEmail(email string) (*domain.HiringManager, error)
	FindAll() ([]domain.HiringManager, error)
}

// DepartmentRepository defines data access for departments.
type DepartmentRepository interface {
	Create(department *domain.Department) error
	FindByID(id string) (*domain.Department, error)
	FindByName(name string) (*domain.Department, error)
	FindAll() ([]domain.Department, error)
}

// EmployeeRepository defines data access for employees.
type EmployeeRepository interface {
	Create(employee *domain.Employee) error
	FindByEmail(email string) (*domain.Employee, error)
	FindAll() ([]domain.Employee, error)
}

// ReferralRepository defines data access for referrals.
type ReferralRepository interface {
	Create(referral *domain.Referral) error
	FindByCandidateID(candidateID uint) ([]domain.Referral, error)

	// HasInternal reports whether the candidate has at least one internal
	// referral, which shields them from the auto-reject sweep.
	HasInternal(candidateID uint) (bool, error)
}

// JobDescriptionRepository defines data access for job descriptions.
type JobDescriptionRepository interface {
	Create(jd *domain.JobDescription) error
	FindByID(id uint) (*domain.JobDescription, error)
	FindLatestByManager(managerID string) (*domain.JobDescription, error)
	FindAll() ([]domain.JobDescription, error)
}
