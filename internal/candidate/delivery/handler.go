package delivery

import (
	"net/http"
	"strconv"

	"hrflow-backend/internal/candidate/domain"
	"hrflow-backend/internal/candidate/repository"
	"hrflow-backend/internal/candidate/usecase"

	"github.com/gin-gonic/gin"
)

// Handler exposes the screening pipeline and the registration endpoints.
type Handler struct {
	screening   *usecase.ScreeningUsecase
	managers    repository.ManagerRepository
	departments repository.DepartmentRepository
	employees   repository.EmployeeRepository
	referrals   repository.ReferralRepository
	candidates  repository.CandidateRepository
}

func NewHandler(
	screening *usecase.ScreeningUsecase,
	managers repository.ManagerRepository,
	departments repository.DepartmentRepository,
	employees repository.EmployeeRepository,
	referrals repository.ReferralRepository,
	candidates repository.CandidateRepository,
) *Handler {
	return &Handler{
		screening:   screening,
		managers:    managers,
		departments: departments,
		employees:   employees,
		referrals:   referrals,
		candidates:  candidates,
	}
}

// Upload accepts a multipart résumé or job description.
// Form fields: file, file_type (resume|jd), manager_id, position.
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	fileType := c.PostForm("file_type")
	managerID := c.PostForm("manager_id")
	position := c.PostForm("position")

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	switch fileType {
	case "jd":
		id, err := h.screening.UploadJobDescription(c.Request.Context(), fileHeader.Filename, src, managerID, position)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "job_description_id": id})

	case "resume", "":
		res, err := h.screening.UploadResume(c.Request.Context(), fileHeader.Filename, src, managerID, position)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_type must be resume or jd"})
	}
}

type createDepartmentRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) CreateDepartment(c *gin.Context) {
	var req createDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dept := domain.Department{Name: req.Name}
	if err := h.departments.Create(&dept); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dept)
}

type createManagerRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone"`
	DepartmentID string `json:"department_id" binding:"required"`
}

func (h *Handler) CreateManager(c *gin.Context) {
	var req createManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	manager := domain.HiringManager{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		DepartmentID: req.DepartmentID,
	}
	if err := h.managers.Create(&manager); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, manager)
}

type createEmployeeRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone"`
	Position     string `json:"position"`
	DepartmentID string `json:"department_id"`
}

func (h *Handler) CreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	employee := domain.Employee{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Position:     req.Position,
		DepartmentID: req.DepartmentID,
	}
	if err := h.employees.Create(&employee); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, employee)
}

type createReferralRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	CandidateID uint   `json:"candidate_id" binding:"required"`
}

func (h *Handler) CreateReferral(c *gin.Context) {
	var req createReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	referral := domain.Referral{
		Name:        req.Name,
		Email:       req.Email,
		CandidateID: req.CandidateID,
	}
	// A referrer who is a current employee makes this an internal referral.
	emp, err := h.employees.FindByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if emp != nil {
		referral.IsInternal = true
		referral.ReferrerEmployeeID = emp.ID
		referral.InternalDepartment = emp.DepartmentID
	}

	if err := h.referrals.Create(&referral); err != nil {
		// Duplicate referral for the same candidate is a soft failure.
		c.JSON(http.StatusOK, gin.H{"ok": true, "created": false, "reason": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, referral)
}

func (h *Handler) candidateID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid candidate id"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) Evaluate(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}
	res, err := h.screening.EvaluateCandidate(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) NotifyManager(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}
	force := c.Query("force") == "true"
	res, err := h.screening.NotifyManagerIfPass(c.Request.Context(), id, force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) AutoReject(c *gin.Context) {
	res, err := h.screening.AutoRejectSweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}
