package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"netsuite-gateway/models"
	"netsuite-gateway/services"
)

// BalanceController serves balance cells: single, batch, and the warmers
type BalanceController struct {
	coordinator *services.BalanceCoordinator
	lookups     *services.LookupService
}

// NewBalanceController builds the balance handlers
func NewBalanceController(coordinator *services.BalanceCoordinator, lookups *services.LookupService) *BalanceController {
	return &BalanceController{coordinator: coordinator, lookups: lookups}
}

type singleCellQuery struct {
	Account    string `form:"account" binding:"required"`
	FromPeriod string `form:"from_period" binding:"required,period"`
	ToPeriod   string `form:"to_period" binding:"required,period"`
	services.FilterInput
}

func (q *singleCellQuery) normalize() (string, string, string, error) {
	account := models.NormalizeAccountNumber(q.Account)
	if account == "" {
		return "", "", "", models.NewAppError(models.ErrValidation, "missing account number")
	}
	from, err := models.NormalizePeriod(q.FromPeriod)
	if err != nil {
		return "", "", "", err
	}
	to, err := models.NormalizePeriod(q.ToPeriod)
	if err != nil {
		return "", "", "", err
	}
	return account, from, to, nil
}

// Balance answers one BALANCE(account, from, to) cell
func (b *BalanceController) Balance(c *gin.Context) {
	var q singleCellQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	account, from, to, err := q.normalize()
	if err != nil {
		respondError(c, err)
		return
	}
	f := b.lookups.ResolveFilters(q.FilterInput)

	v, err := b.coordinator.SingleBalance(c.Request.Context(), account, from, to, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Budget answers one BUDGET(account, from, to) cell
func (b *BalanceController) Budget(c *gin.Context) {
	var q singleCellQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	account, from, to, err := q.normalize()
	if err != nil {
		respondError(c, err)
		return
	}
	f := b.lookups.ResolveFilters(q.FilterInput)

	v, err := b.coordinator.SingleBudget(c.Request.Context(), account, from, to, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// batchBalanceRequest accepts both shapes the add-in sends: an explicit cell
// list, or an accounts x periods grid.
type batchBalanceRequest struct {
	Requests []batchCell          `json:"requests"`
	Accounts []string             `json:"accounts"`
	Periods  []string             `json:"periods"`
	Filters  services.FilterInput `json:"filters"`
	Refresh  bool                 `json:"refresh"`
}

type batchCell struct {
	Account    string                `json:"account" binding:"required"`
	FromPeriod string                `json:"fromPeriod" binding:"required"`
	ToPeriod   string                `json:"toPeriod"`
	Filters    *services.FilterInput `json:"filters"`
}

// BatchBalance resolves a whole drag of cells in one fan-out. Every requested
// account x period pair is present in the response; unknown accounts come back
// as explicit zeros.
func (b *BalanceController) BatchBalance(c *gin.Context) {
	var req batchBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if len(req.Requests) > 0 {
		b.batchCells(c, req)
		return
	}
	if len(req.Accounts) == 0 || len(req.Periods) == 0 {
		bindError(c, models.NewAppError(models.ErrValidation, "provide requests[] or accounts[] plus periods[]"))
		return
	}

	accounts := make([]string, 0, len(req.Accounts))
	for _, acct := range req.Accounts {
		if n := models.NormalizeAccountNumber(acct); n != "" {
			accounts = append(accounts, n)
		}
	}
	periods := make([]string, 0, len(req.Periods))
	for _, p := range req.Periods {
		normalized, err := models.NormalizePeriod(p)
		if err != nil {
			respondError(c, err)
			return
		}
		periods = append(periods, normalized)
	}
	f := b.lookups.ResolveFilters(req.Filters)

	balances, err := b.coordinator.Balances(c.Request.Context(), accounts, periods, f, req.Refresh)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

// batchCells handles the explicit cell-list shape. Cells sharing a filter
// bundle group into one fan-out; per-cell filters override the request-level
// bundle.
func (b *BalanceController) batchCells(c *gin.Context, req batchBalanceRequest) {
	type group struct {
		filters  models.FilterBundle
		accounts map[string]bool
		periods  map[string]bool
	}
	groups := make(map[string]*group)
	defaultFilters := b.lookups.ResolveFilters(req.Filters)

	for _, cell := range req.Requests {
		account := models.NormalizeAccountNumber(cell.Account)
		if account == "" {
			continue
		}
		from, err := models.NormalizePeriod(cell.FromPeriod)
		if err != nil {
			respondError(c, err)
			return
		}
		to := from
		if cell.ToPeriod != "" {
			if to, err = models.NormalizePeriod(cell.ToPeriod); err != nil {
				respondError(c, err)
				return
			}
		}
		periods, err := models.PeriodRange(from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		f := defaultFilters
		if cell.Filters != nil {
			f = b.lookups.ResolveFilters(*cell.Filters)
		}
		gk := services.CacheKey("group", services.FilterKeyParams(f))
		g, ok := groups[gk]
		if !ok {
			g = &group{filters: f, accounts: make(map[string]bool), periods: make(map[string]bool)}
			groups[gk] = g
		}
		g.accounts[account] = true
		for _, p := range periods {
			g.periods[p] = true
		}
	}

	merged := make(models.BalanceResult)
	for _, g := range groups {
		accounts := make([]string, 0, len(g.accounts))
		for a := range g.accounts {
			accounts = append(accounts, a)
		}
		periods := make([]string, 0, len(g.periods))
		for p := range g.periods {
			periods = append(periods, p)
		}
		models.SortPeriods(periods)

		balances, err := b.coordinator.Balances(c.Request.Context(), accounts, periods, g.filters, req.Refresh)
		if err != nil {
			respondError(c, err)
			return
		}
		merged.Merge(balances)
	}
	c.JSON(http.StatusOK, gin.H{"balances": merged})
}

type fullYearRequest struct {
	Year    int                  `json:"year" binding:"required"`
	SkipBS  bool                 `json:"skip_bs"`
	Filters services.FilterInput `json:"filters"`
}

// FullYearRefresh warms a fiscal year for every account in one call
func (b *BalanceController) FullYearRefresh(c *gin.Context) {
	var req fullYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	f := b.lookups.ResolveFilters(req.Filters)

	out, err := b.coordinator.FullYearRefresh(c.Request.Context(), req.Year, req.SkipBS, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type bsPeriodsRequest struct {
	Periods []string             `json:"periods" binding:"required,min=1,dive,period"`
	Filters services.FilterInput `json:"filters"`
}

// BSPeriods warms the balance sheet at an explicit list of month-ends
func (b *BalanceController) BSPeriods(c *gin.Context) {
	var req bsPeriodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	periods := make([]string, 0, len(req.Periods))
	for _, p := range req.Periods {
		normalized, err := models.NormalizePeriod(p)
		if err != nil {
			respondError(c, err)
			return
		}
		periods = append(periods, normalized)
	}
	f := b.lookups.ResolveFilters(req.Filters)

	balances, err := b.coordinator.BSPeriods(c.Request.Context(), periods, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balances": balances})
}
