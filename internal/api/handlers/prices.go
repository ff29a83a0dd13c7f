package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andriemoral27/PrinTech-Main/internal/db"
)

type CreatePriceTableRequest struct {
	BlackRate     int64      `json:"black_rate" binding:"required,min=1"`
	ColorRate     int64      `json:"color_rate" binding:"required,min=1"`
	EffectiveFrom *time.Time `json:"effective_from"`
}

type PriceTableResponse struct {
	ID            int64     `json:"id"`
	BlackRate     int64     `json:"black_rate"`
	ColorRate     int64     `json:"color_rate"`
	EffectiveFrom time.Time `json:"effective_from"`
	CreatedAt     time.Time `json:"created_at"`
}

type PriceHandler struct{}

func NewPriceHandler() *PriceHandler {
	return &PriceHandler{}
}

func (h *PriceHandler) GetCurrent(c *gin.Context) {
	table, err := db.Prices.PriceTableAt(c.Request.Context(), time.Now().UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "no price table configured"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load prices"})
		return
	}
	c.JSON(http.StatusOK, toPriceResponse(table))
}

func (h *PriceHandler) ListTables(c *gin.Context) {
	tables, err := db.Prices.ListPriceTables(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list price tables"})
		return
	}

	responses := make([]PriceTableResponse, 0, len(tables))
	for _, t := range tables {
		responses = append(responses, toPriceResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"price_tables": responses, "count": len(responses)})
}

// CreateTable appends a new rate table. Tables are never edited in place;
// jobs created before the new effective_from keep their stored price.
func (h *PriceHandler) CreateTable(c *gin.Context) {
	var req CreatePriceTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	effective := time.Now().UTC()
	if req.EffectiveFrom != nil {
		effective = req.EffectiveFrom.UTC()
	}

	table := &db.PriceTable{
		BlackRate:     req.BlackRate,
		ColorRate:     req.ColorRate,
		EffectiveFrom: effective,
	}
	if err := db.Prices.CreatePriceTable(c.Request.Context(), table); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create price table"})
		return
	}

	c.JSON(http.StatusCreated, toPriceResponse(table))
}

func toPriceResponse(t *db.PriceTable) PriceTableResponse {
	return PriceTableResponse{
		ID:            t.ID,
		BlackRate:     t.BlackRate,
		ColorRate:     t.ColorRate,
		EffectiveFrom: t.EffectiveFrom,
		CreatedAt:     t.CreatedAt,
	}
}
