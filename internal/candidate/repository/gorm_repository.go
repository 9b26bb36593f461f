package repository

import (
	"errors"
	"time"

	"hrflow-backend/internal/candidate/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormCandidateRepository struct {
	db *gorm.DB
}

func NewGormCandidateRepository(db *gorm.DB) CandidateRepository {
	return &gormCandidateRepository{db: db}
}

func (r *gormCandidateRepository) Create(candidate *domain.Candidate) error {
	if candidate.UploadedAt.IsZero() {
		candidate.UploadedAt = time.Now().UTC()
	}
	return r.db.Create(candidate).Error
}

func (r *gormCandidateRepository) FindByID(id uint) (*domain.Candidate, error) {
	var candidate domain.Candidate
	err := r.db.First(&candidate, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &candidate, nil
}

func (r *gormCandidateRepository) FindByEmail(email string) (*domain.Candidate, error) {
	var candidate domain.Candidate
	err := r.db.Where("email = ?", email).First(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &candidate, nil
}

func (r *gormCandidateRepository) Update(candidate *domain.Candidate) error {
	return r.db.Save(candidate).Error
}

func (r *gormCandidateRepository) FindAllWithEmail() ([]domain.Candidate, error) {
	var candidates []domain.Candidate
	err := r.db.Where("email <> ''").Order("uploaded_at DESC").Find(&candidates).Error
	return candidates, err
}

func (r *gormCandidateRepository) FindActiveForManager(managerID, threadID string) (*domain.Candidate, error) {
	if threadID != "" {
		var candidate domain.Candidate
		err := r.db.Where("manager_id = ? AND gmail_thread_id = ?", managerID, threadID).
			Order("uploaded_at DESC").
			First(&candidate).Error
		if err == nil {
			return &candidate, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var candidate domain.Candidate
	err := r.db.Where("manager_id = ? AND status IN ?", managerID,
		[]string{domain.StatusForwardedToManager, domain.StatusReceived}).
		Order("uploaded_at DESC").
		First(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &candidate, nil
}

func (r *gormCandidateRepository) FindAutoRejectTargets(cutoff time.Time, threshold float64) ([]domain.Candidate, error) {
	var candidates []domain.Candidate
	err := r.db.Where("status = ? AND uploaded_at < ? AND (cv_score IS NULL OR cv_score < ?)",
		domain.StatusReceived, cutoff, threshold).
		Order("uploaded_at ASC").
		Find(&candidates).Error
	return candidates, err
}

type gormManagerRepository struct {
	db *gorm.DB
}

func NewGormManagerRepository(db *gorm.DB) ManagerRepository {
	return &gormManagerRepository{db: db}
}

func (r *gormManagerRepository) Create(manager *domain.HiringManager) error {
	if manager.ID == "" {
		manager.ID = uuid.New().String()
	}
	return r.db.Create(manager).Error
}

func (r *gormManagerRepository) FindByID(id string) (*domain.HiringManager, error) {
	var manager domain.HiringManager
	err := r.db.Where("id = ?", id).First(&manager).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &manager, nil
}

func (r *gormManagerRepository) FindByEmail(email string) (*domain.HiringManager, error) {
	var manager domain.HiringManager
	err := r.db.Where("email = ?", email).First(&manager).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &manager, nil
}

func (r *gormManagerRepository) FindAll() ([]domain.HiringManager, error) {
	var managers []domain.HiringManager
	err := r.db.Order("name ASC").Find(&managers).Error
	return managers, err
}

type gormDepartmentRepository struct {
	db *gorm.DB
}

func NewGormDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &gormDepartmentRepository{db: db}
}

func (r *gormDepartmentRepository) Create(department *domain.Department) error {
	if department.ID == "" {
		department.ID = uuid.New().String()
	}
	return r.db.Create(department).Error
}

func (r *gormDepartmentRepository) FindByID(id string) (*domain.Department, error) {
	var department domain.Department
	err := r.db.Where("id = ?", id).First(&department).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &department, nil
}

func (r *gormDepartmentRepository) FindByName(name string) (*domain.Department, error) {
	var department domain.Department
	err := r.db.Where("name = ?", name).First(&department).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &department, nil
}

func (r *gormDepartmentRepository) FindAll() ([]domain.Department, error) {
	var departments []domain.Department
	err := r.db.Order("name ASC").Find(&departments).Error
	return departments, err
}

type gormEmployeeRepository struct {
	db *gorm.DB
}

func NewGormEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &gormEmployeeRepository{db: db}
}

func (r *gormEmployeeRepository) Create(employee *domain.Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.New().String()
	}
	return r.db.Create(employee).Error
}

func (r *gormEmployeeRepository) FindByEmail(email string) (*domain.Employee, error) {
	var employee domain.Employee
	err := r.db.Where("email = ?", email).First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &employee, nil
}

func (r *gormEmployeeRepository) FindAll() ([]domain.Employee, error) {
	var employees []domain.Employee
	err := r.db.Order("name ASC").Find(&employees).Error
	return employees, err
}

type gormReferralRepository struct {
	db *gorm.DB
}

func NewGormReferralRepository(db *gorm.DB) ReferralRepository {
	return &gormReferralRepository{db: db}
}

func (r *gormReferralRepository) Create(referral *domain.Referral) error {
	return r.db.Create(referral).Error
}

func (r *gormReferralRepository) FindByCandidateID(candidateID uint) ([]domain.Referral, error) {
	var referrals []domain.Referral
	err := r.db.Where("candidate_id = ?", candidateID).Find(&referrals).Error
	return referrals, err
}

func (r *gormReferralRepository) HasInternal(candidateID uint) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Referral{}).
		Where("candidate_id = ? AND is_internal = ?", candidateID, true).
		Count(&count).Error
	return count > 0, err
}

type gormJobDescriptionRepository struct {
	db *gorm.DB
}

func NewGormJobDescriptionRepository(db *gorm.DB) JobDescriptionRepository {
	return &gormJobDescriptionRepository{db: db}
}

func (r *gormJobDescriptionRepository) Create(jd *domain.JobDescription) error {
	return r.db.Create(jd).Error
}

func (r *gormJobDescriptionRepository) FindByID(id uint) (*domain.JobDescription, error) {
	var jd domain.JobDescription
	err := r.db.First(&jd, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &jd, nil
}

func (r *gormJobDescriptionRepository) FindLatestByManager(managerID string) (*domain.JobDescription, error) {
	var jd domain.JobDescription
	err := r.db.Where("manager_id = ?", managerID).
		Order("created_at DESC").
		First(&jd).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &jd, nil
}

func (r *gormJobDescriptionRepository) FindAll() ([]domain.JobDescription, error) {
	var jds []domain.JobDescription
	err := r.db.Order("created_at DESC").Find(&jds).Error
	return jds, err
}
