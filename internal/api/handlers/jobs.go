package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andriemoral27/PrinTech-Main/internal/core"
	"github.com/andriemoral27/PrinTech-Main/internal/db"
)

type CreateJobRequest struct {
	DocumentName string `json:"document_name" binding:"required"`
	SourcePath   string `json:"source_path" binding:"required"`
	TotalPages   int    `json:"total_pages" binding:"required,min=1"`
	Pages        string `json:"pages"`
	ColorMode    string `json:"color_mode" binding:"required"`
}

type JobResponse struct {
	ID             string    `json:"id"`
	DocumentName   string    `json:"document_name"`
	TotalPages     int       `json:"total_pages"`
	Pages          string    `json:"pages"`
	ColorMode      string    `json:"color_mode"`
	UnitPrice      int64     `json:"unit_price"`
	TotalPrice     int64     `json:"total_price"`
	InsertedAmount int64     `json:"inserted_amount"`
	State          string    `json:"state"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ListJobsQuery struct {
	State  string `form:"state"`
	Limit  int    `form:"limit" binding:"max=100"`
	Offset int    `form:"offset"`
}

type JobHandler struct {
	kiosk *core.Kiosk
}

func NewJobHandler(kiosk *core.Kiosk) *JobHandler {
	return &JobHandler{kiosk: kiosk}
}

// CreateJob prices the document against the rate table in effect right now
// and queues it awaiting payment. The stored unit and total price never
// change afterwards, so later rate updates cannot reprice a queued job.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode, err := core.ParseColorMode(req.ColorMode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Pages == "" {
		req.Pages = "all"
	}
	pageCount, err := core.PageCount(req.Pages, req.TotalPages)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	table, err := db.Prices.PriceTableAt(c.Request.Context(), time.Now().UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no price table configured"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load prices"})
		return
	}

	job := &db.PrintJob{
		ID:           uuid.NewString(),
		DocumentName: req.DocumentName,
		SourcePath:   req.SourcePath,
		TotalPages:   req.TotalPages,
		PagesToPrint: req.Pages,
		ColorMode:    string(mode),
		UnitPrice:    core.Rate(mode, table),
		TotalPrice:   core.ComputePrice(pageCount, mode, table),
		State:        string(core.StateAwaitingPayment),
	}

	if err := db.Jobs.CreateJob(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}

	created, err := db.Jobs.GetJobByID(c.Request.Context(), job.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}

	c.JSON(http.StatusCreated, toJobResponse(created))
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := db.Jobs.GetJobByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job"})
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job))
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	var query ListJobsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobs, err := db.Jobs.ListJobs(c.Request.Context(), db.JobFilter{
		State:  query.State,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}

	responses := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		responses = append(responses, toJobResponse(j))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": responses, "count": len(responses)})
}

// CancelJob cancels a job still awaiting payment; coins already inserted
// stay recorded on the job. Anything past payment cannot be cancelled.
func (h *JobHandler) CancelJob(c *gin.Context) {
	err := h.kiosk.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		if errors.Is(err, core.ErrJobNotActive) {
			c.JSON(http.StatusConflict, gin.H{"error": "job can no longer be cancelled"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel job"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func toJobResponse(j *db.PrintJob) JobResponse {
	return JobResponse{
		ID:             j.ID,
		DocumentName:   j.DocumentName,
		TotalPages:     j.TotalPages,
		Pages:          j.PagesToPrint,
		ColorMode:      j.ColorMode,
		UnitPrice:      j.UnitPrice,
		TotalPrice:     j.TotalPrice,
		InsertedAmount: j.InsertedAmount,
		State:          j.State,
		FailureReason:  j.FailureReason,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
}
