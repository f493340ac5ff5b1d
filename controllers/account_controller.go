package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"netsuite-gateway/models"
	"netsuite-gateway/services"
)

// AccountController serves account metadata: names, types, parents, search
type AccountController struct {
	accounts *services.AccountService
}

// NewAccountController builds the account handlers
func NewAccountController(accounts *services.AccountService) *AccountController {
	return &AccountController{accounts: accounts}
}

type accountRequest struct {
	Account string `json:"account" binding:"required"`
}

// accountFromRequest accepts the number from the path (GET) or body (POST)
func accountFromRequest(c *gin.Context) (string, bool) {
	if num := c.Param("num"); num != "" {
		return num, true
	}
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return "", false
	}
	return req.Account, true
}

// Name answers the add-in's account-title cell
func (a *AccountController) Name(c *gin.Context) {
	account, ok := accountFromRequest(c)
	if !ok {
		return
	}
	name, err := a.accounts.Name(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, name)
}

// Type answers the account-type cell
func (a *AccountController) Type(c *gin.Context) {
	account, ok := accountFromRequest(c)
	if !ok {
		return
	}
	accttype, err := a.accounts.Type(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accttype)
}

// Parent answers the parent-account cell; top-level accounts get an empty string
func (a *AccountController) Parent(c *gin.Context) {
	account, ok := accountFromRequest(c)
	if !ok {
		return
	}
	parent, err := a.accounts.Parent(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, parent)
}

// Search finds accounts by number or name pattern; '*' maps to SQL '%'
func (a *AccountController) Search(c *gin.Context) {
	pattern := strings.TrimSpace(c.Query("pattern"))
	if pattern == "" {
		bindError(c, models.NewAppError(models.ErrValidation, "missing pattern"))
		return
	}
	activeOnly := c.DefaultQuery("active_only", "true") != "false"

	results, err := a.accounts.Search(c.Request.Context(), pattern, activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pattern":  pattern,
		"count":    len(results),
		"accounts": results,
	})
}

type batchTypesRequest struct {
	Accounts []string `json:"accounts" binding:"required,min=1"`
}

// BatchTypes resolves types for a whole sheet of accounts in one call
func (a *AccountController) BatchTypes(c *gin.Context) {
	var req batchTypesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	normalized := make([]string, 0, len(req.Accounts))
	for _, acct := range req.Accounts {
		if n := models.NormalizeAccountNumber(acct); n != "" {
			normalized = append(normalized, n)
		}
	}
	types, err := a.accounts.Types(c.Request.Context(), normalized)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}
