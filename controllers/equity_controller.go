package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"netsuite-gateway/models"
	"netsuite-gateway/services"
)

// EquityController serves the derived equity figures the ERP never posts
type EquityController struct {
	equity  *services.EquityService
	lookups *services.LookupService
}

// NewEquityController builds the equity handlers
func NewEquityController(equity *services.EquityService, lookups *services.LookupService) *EquityController {
	return &EquityController{equity: equity, lookups: lookups}
}

type equityRequest struct {
	Period string `json:"period" binding:"required,period"`
	services.FilterInput
	Filters *services.FilterInput `json:"filters"`
}

func (e *EquityController) bind(c *gin.Context) (string, models.FilterBundle, bool) {
	var req equityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return "", models.FilterBundle{}, false
	}
	period, err := models.NormalizePeriod(req.Period)
	if err != nil {
		respondError(c, err)
		return "", models.FilterBundle{}, false
	}
	in := req.FilterInput
	if req.Filters != nil {
		in = *req.Filters
	}
	return period, e.lookups.ResolveFilters(in), true
}

// RetainedEarnings answers the retained-earnings cell at a month-end
func (e *EquityController) RetainedEarnings(c *gin.Context) {
	period, f, ok := e.bind(c)
	if !ok {
		return
	}
	v, err := e.equity.RetainedEarnings(c.Request.Context(), period, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// NetIncome answers the fiscal-year-to-date net income cell
func (e *EquityController) NetIncome(c *gin.Context) {
	period, f, ok := e.bind(c)
	if !ok {
		return
	}
	v, err := e.equity.NetIncome(c.Request.Context(), period, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// CTA answers the cumulative-translation-adjustment cell
func (e *EquityController) CTA(c *gin.Context) {
	period, f, ok := e.bind(c)
	if !ok {
		return
	}
	v, err := e.equity.CTA(c.Request.Context(), period, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
