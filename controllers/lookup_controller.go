package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"netsuite-gateway/services"
)

// LookupController serves the dimension pickers in the add-in's task pane
type LookupController struct {
	lookups *services.LookupService
}

// NewLookupController builds the lookup handlers
func NewLookupController(lookups *services.LookupService) *LookupController {
	return &LookupController{lookups: lookups}
}

// All returns every filter dimension in one payload
func (l *LookupController) All(c *gin.Context) {
	c.JSON(http.StatusOK, l.lookups.All())
}

// AccountingBooks returns the configured books
func (l *LookupController) AccountingBooks(c *gin.Context) {
	c.JSON(http.StatusOK, l.lookups.AccountingBooks())
}
