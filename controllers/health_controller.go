package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"netsuite-gateway/netsuite"
	"netsuite-gateway/services"
	"netsuite-gateway/sqlbuilder"
)

// HealthController answers liveness and connectivity probes
type HealthController struct {
	exec      netsuite.Executor
	lookups   *services.LookupService
	cache     *services.Cache
	accountID string
}

// NewHealthController builds the probe handlers
func NewHealthController(exec netsuite.Executor, lookups *services.LookupService, cache *services.Cache, accountID string) *HealthController {
	return &HealthController{exec: exec, lookups: lookups, cache: cache, accountID: accountID}
}

// Health reports process state without touching the ERP
func (h *HealthController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"account_id":       h.accountID,
		"subsidiary_count": h.lookups.SubsidiaryCount(),
		"cache_entries":    h.cache.Len(),
	})
}

// Test runs one real query against the ERP to prove credentials and
// connectivity end to end.
func (h *HealthController) Test(c *gin.Context) {
	rows, err := h.exec.Query(c.Request.Context(), sqlbuilder.ActiveAccountCount())
	if err != nil {
		respondError(c, err)
		return
	}
	var count int64
	if len(rows) > 0 {
		count = rows[0].Int("cnt")
	}
	c.JSON(http.StatusOK, gin.H{
		"account":         h.accountID,
		"active_accounts": count,
		"message":         "connection ok",
	})
}
