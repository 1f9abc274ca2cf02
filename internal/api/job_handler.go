// internal/api/job_handler.go
package api

import (
	"alcyxob/ai-coach/internal/domain"
	"alcyxob/ai-coach/internal/service"
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// runTimeout bounds a full background job run. Generous: a job is one LLM
// round trip per non-rest day.
const runTimeout = 30 * time.Minute

type PlanJobHandler struct {
	jobService service.PlanJobService
}

func NewPlanJobHandler(jobService service.PlanJobService) *PlanJobHandler {
	return &PlanJobHandler{jobService: jobService}
}

// --- DTOs ---

type ScheduleEntryRequest struct {
	Day   string `json:"day" binding:"required"`
	Focus string `json:"focus" binding:"required"`
}

type CreatePlanJobRequest struct {
	StartDate string                 `json:"start_date" binding:"required"` // "YYYY-MM-DD"
	Schedule  []ScheduleEntryRequest `json:"schedule" binding:"required,min=1"`
}

type RunPlanJobRequest struct {
	JobID  string `json:"job_id" binding:"required"`
	UserID string `json:"user_id" binding:"required"`
}

type PlanJobResponse struct {
	ID           string             `json:"id"`
	Status       domain.JobStatus   `json:"status"`
	Progress     domain.JobProgress `json:"progress"`
	Result       *domain.JobResult  `json:"result,omitempty"`
	ErrorMessage string             `json:"errorMessage,omitempty"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	Request      domain.PlanRequest `json:"request"`
}

func MapPlanJobToResponse(job *domain.PlanGenerationJob) PlanJobResponse {
	return PlanJobResponse{
		ID:           job.ID,
		Status:       job.Status,
		Progress:     job.Progress,
		Result:       job.Result,
		ErrorMessage: job.ErrorMessage,
		CompletedAt:  job.CompletedAt,
		CreatedAt:    job.CreatedAt,
		Request:      job.Request,
	}
}

func MapPlanJobsToResponse(jobs []domain.PlanGenerationJob) []PlanJobResponse {
	responses := make([]PlanJobResponse, 0, len(jobs))
	for i := range jobs {
		responses = append(responses, MapPlanJobToResponse(&jobs[i]))
	}
	return responses
}

// --- Handler Methods ---

// CreatePlanJob godoc
// @Summary Request generation of a personalized plan
// @Description Creates a queued plan generation job for the authenticated user and starts it in the background. Poll the job endpoint for progress.
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePlanJobRequest true "Start date and day schedule"
// @Success 202 {object} PlanJobResponse "Queued job"
// @Failure 400 {object} gin.H "Invalid payload"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /coach/plan-jobs [post]
func (h *PlanJobHandler) CreatePlanJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreatePlanJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}

	schedule := make([]domain.ScheduleEntry, 0, len(req.Schedule))
	for _, entry := range req.Schedule {
		schedule = append(schedule, domain.ScheduleEntry{Day: entry.Day, Focus: entry.Focus})
	}

	job, err := h.jobService.CreateJob(c.Request.Context(), userID, domain.PlanRequest{
		StartDate: startDate,
		Schedule:  schedule,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidSchedule) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to create plan job.")
		return
	}

	// Kick the orchestrator off the request goroutine; the client polls.
	go func(jobID string, userID primitive.ObjectID) {
		runCtx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if err := h.jobService.Run(runCtx, jobID, userID); err != nil {
			log.Printf("ERROR: Background run of plan job %s: %v", jobID, err)
		}
	}(job.ID, userID)

	c.JSON(http.StatusAccepted, MapPlanJobToResponse(job))
}

// RunPlanJob godoc
// @Summary Trigger a queued plan job (internal)
// @Description Runs the orchestrator for a queued job synchronously. Returns success:true whenever the run reached a terminal state, including failed; only transport-level problems produce a non-2xx.
// @Tags Worker
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RunPlanJobRequest true "Job and user identifiers"
// @Success 200 {object} gin.H "success flag"
// @Failure 400 {object} gin.H "Malformed payload"
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /internal/worker/plan-jobs [post]
func (h *PlanJobHandler) RunPlanJob(c *gin.Context) {
	var req RunPlanJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
		return
	}

	// A failed job is still a completed trigger call: the failure lives on
	// the job record for pollers, not in the HTTP status.
	if err := h.jobService.Run(c.Request.Context(), req.JobID, userID); err != nil {
		log.Printf("Plan job %s run finished with error: %v", req.JobID, err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetPlanJob godoc
// @Summary Poll a plan generation job
// @Description Returns status, progress and, on terminal states, the result or error message.
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param jobId path string true "Job ID"
// @Success 200 {object} PlanJobResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "Job not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /coach/plan-jobs/{jobId} [get]
func (h *PlanJobHandler) GetPlanJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	job, err := h.jobService.GetJob(c.Request.Context(), c.Param("jobId"), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound), errors.Is(err, service.ErrJobNotOwned):
			// Not-owned reads 404 so job ids are not probeable.
			abortWithError(c, http.StatusNotFound, "Plan job not found.")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plan job.")
		}
		return
	}
	c.JSON(http.StatusOK, MapPlanJobToResponse(job))
}

// ListPlanJobs godoc
// @Summary List my plan generation jobs
// @Description Returns the authenticated user's recent jobs, newest first.
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Success 200 {array} PlanJobResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /coach/plan-jobs [get]
func (h *PlanJobHandler) ListPlanJobs(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	jobs, err := h.jobService.GetJobsForUser(c.Request.Context(), userID, 20)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plan jobs.")
		return
	}
	c.JSON(http.StatusOK, MapPlanJobsToResponse(jobs))
}

// GetPlanDays godoc
// @Summary Get my generated plan days
// @Description Returns plan days in the given date range so clients can diff delivered days against the requested schedule.
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param from query string true "Range start, YYYY-MM-DD"
// @Param to query string true "Range end, YYYY-MM-DD"
// @Success 200 {array} domain.PersonalizedPlanDay
// @Failure 400 {object} gin.H "Invalid range"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /coach/plan-days [get]
func (h *PlanJobHandler) GetPlanDays(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	from, to := c.Query("from"), c.Query("to")
	if !validDate(from) || !validDate(to) {
		abortWithError(c, http.StatusBadRequest, "from and to must be YYYY-MM-DD")
		return
	}

	days, err := h.jobService.GetPlanDays(c.Request.Context(), userID, from, to)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plan days.")
		return
	}
	if days == nil {
		days = []domain.PersonalizedPlanDay{}
	}
	c.JSON(http.StatusOK, days)
}

// GetPlanArchive godoc
// @Summary Get a download URL for a job's archived plan
// @Description Returns a temporary URL for the JSON snapshot uploaded when the job completed.
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param jobId path string true "Job ID"
// @Success 200 {object} gin.H "downloadUrl"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "Job or archive not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /coach/plan-jobs/{jobId}/archive [get]
func (h *PlanJobHandler) GetPlanArchive(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	url, err := h.jobService.GetArchiveDownloadURL(c.Request.Context(), c.Param("jobId"), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound), errors.Is(err, service.ErrJobNotOwned), errors.Is(err, service.ErrNoArchive):
			abortWithError(c, http.StatusNotFound, "Archive not found.")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

// currentUserID resolves the authenticated user's ObjectID or aborts.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return primitive.NilObjectID, false
	}
	return userID, true
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
