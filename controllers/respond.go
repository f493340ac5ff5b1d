package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"netsuite-gateway/models"
)

// respondError maps an error to its HTTP status once, for every controller.
// NOT_FOUND gets an empty body so a missing account renders as a blank cell.
func respondError(c *gin.Context, err error) {
	kind := models.KindOf(err)
	status := kind.HTTPStatus()
	if kind == models.ErrNotFound {
		c.Status(http.StatusNotFound)
		return
	}
	if kind == models.ErrRateLimited {
		c.Header("Retry-After", "5")
	}
	c.JSON(status, gin.H{
		"error":  string(kind),
		"detail": models.DetailOf(err),
	})
}

// bindError reports a malformed request body or query string
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  string(models.ErrValidation),
		"detail": err.Error(),
	})
}
