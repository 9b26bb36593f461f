package delivery

import (
	"net/http"
	"strconv"

	candrepo "hrflow-backend/internal/candidate/repository"
	"hrflow-backend/internal/conversation/repository"
	"hrflow-backend/internal/conversation/usecase"

	"github.com/gin-gonic/gin"
)

// Handler exposes the negotiation engine: the two ingestion runs, the
// outbound invite operations and the status read.
type Handler struct {
	negotiation *usecase.NegotiationUsecase
	store       repository.Store
	candidates  candrepo.CandidateRepository
}

func NewHandler(negotiation *usecase.NegotiationUsecase, store repository.Store, candidates candrepo.CandidateRepository) *Handler {
	return &Handler{negotiation: negotiation, store: store, candidates: candidates}
}

func (h *Handler) IngestManagerReplies(c *gin.Context) {
	res, err := h.negotiation.IngestManagerReplies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) IngestCandidateReplies(c *gin.Context) {
	res, err := h.negotiation.IngestCandidateReplies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) candidateID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid candidate id"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) SendInvites(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}
	res, err := h.negotiation.SendSlotInvites(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

type proposeTimeRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end"`
}

func (h *Handler) ProposeTime(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}
	var req proposeTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.negotiation.ProposeTimeToApplicant(c.Request.Context(), id, req.Start, req.End)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// CandidateStatus returns the candidate's scheduling-conversation snapshot.
func (h *Handler) CandidateStatus(c *gin.Context) {
	id, ok := h.candidateID(c)
	if !ok {
		return
	}

	cand, err := h.candidates.FindByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cand == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "candidate not found"})
		return
	}

	status, err := h.store.Repos().Statuses.FindByCandidateID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	events, err := h.store.Repos().Events.FindByCandidateID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"candidate_id":     cand.ID,
		"name":             cand.Name,
		"candidate_status": cand.Status,
		"cv_score":         cand.CVScore,
		"events":           events,
	}
	if status != nil {
		resp["conversation_status"] = status.CurrentStatus
		resp["final_meeting_time"] = status.FinalMeetingTime
	}
	c.JSON(http.StatusOK, resp)
}
