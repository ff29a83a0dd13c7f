package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andriemoral27/PrinTech-Main/internal/core"
	"github.com/andriemoral27/PrinTech-Main/internal/db"
)

type RefillRequest struct {
	SheetCount int `json:"sheet_count" binding:"min=0"`
}

type PaperStatusResponse struct {
	RemainingSheets int `json:"remaining_sheets"`
}

type PaperSnapshotResponse struct {
	ID              int64     `json:"id"`
	RemainingSheets int       `json:"remaining_sheets"`
	IsRefillEvent   bool      `json:"is_refill_event"`
	RecordedAt      time.Time `json:"recorded_at"`
}

type PaperHandler struct {
	ledger   *core.PaperLedger
	notifier core.Notifier
}

func NewPaperHandler(ledger *core.PaperLedger, notifier core.Notifier) *PaperHandler {
	return &PaperHandler{ledger: ledger, notifier: notifier}
}

func (h *PaperHandler) GetStatus(c *gin.Context) {
	remaining, err := h.ledger.Remaining(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read paper stock"})
		return
	}
	c.JSON(http.StatusOK, PaperStatusResponse{RemainingSheets: remaining})
}

func (h *PaperHandler) GetHistory(c *gin.Context) {
	snapshots, err := db.Paper.ListSnapshots(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list paper history"})
		return
	}

	responses := make([]PaperSnapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		responses = append(responses, PaperSnapshotResponse{
			ID:              s.ID,
			RemainingSheets: s.RemainingSheets,
			IsRefillEvent:   s.IsRefillEvent,
			RecordedAt:      s.RecordedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": responses, "count": len(responses)})
}

// Refill records the sheet count the operator loaded. The count replaces
// the current stock rather than adding to it; the operator reports what is
// physically in the tray.
func (h *PaperHandler) Refill(c *gin.Context) {
	var req RefillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ledger.RecordRefill(c.Request.Context(), req.SheetCount); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record refill"})
		return
	}

	if h.notifier != nil {
		h.notifier.SendPaperEvent(core.EventPaperRefilled, req.SheetCount)
	}
	c.JSON(http.StatusOK, PaperStatusResponse{RemainingSheets: req.SheetCount})
}
