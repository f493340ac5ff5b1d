package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"netsuite-gateway/services"
)

// TransactionController serves the drill-down behind a balance cell
type TransactionController struct {
	transactions *services.TransactionService
	lookups      *services.LookupService
}

// NewTransactionController builds the drill-down handler
func NewTransactionController(transactions *services.TransactionService, lookups *services.LookupService) *TransactionController {
	return &TransactionController{transactions: transactions, lookups: lookups}
}

type transactionsQuery struct {
	Account string `form:"account" binding:"required"`
	Period  string `form:"period" binding:"required,period"`
	services.FilterInput
}

// List returns the posted lines behind one account x period cell
func (t *TransactionController) List(c *gin.Context) {
	var q transactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	f := t.lookups.ResolveFilters(q.FilterInput)

	out, err := t.transactions.List(c.Request.Context(), q.Account, q.Period, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
