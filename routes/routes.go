package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"netsuite-gateway/controllers"
	"netsuite-gateway/middleware"
)

// Controllers bundles every handler group the router mounts
type Controllers struct {
	Health       *controllers.HealthController
	Lookup       *controllers.LookupController
	Account      *controllers.AccountController
	Balance      *controllers.BalanceController
	Equity       *controllers.EquityController
	Transactions *controllers.TransactionController
}

// SetupRouter wires middleware and every route. CORS is wide open: the add-in
// runs inside a spreadsheet webview and all auth happens upstream.
func SetupRouter(ctrl Controllers) *gin.Engine {
	registerValidations()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	corsConfig := cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"*"},
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", ctrl.Health.Health)
	r.GET("/test", ctrl.Health.Test)

	r.GET("/lookups/all", ctrl.Lookup.All)
	r.GET("/lookups/accountingbooks", ctrl.Lookup.AccountingBooks)

	r.GET("/account/:num/name", ctrl.Account.Name)
	r.POST("/account/name", ctrl.Account.Name)
	r.GET("/account/:num/type", ctrl.Account.Type)
	r.POST("/account/type", ctrl.Account.Type)
	r.GET("/account/:num/parent", ctrl.Account.Parent)
	r.POST("/account/parent", ctrl.Account.Parent)
	r.GET("/accounts/search", ctrl.Account.Search)

	r.GET("/balance", ctrl.Balance.Balance)
	r.GET("/budget", ctrl.Balance.Budget)
	r.POST("/batch/balance", ctrl.Balance.BatchBalance)
	r.POST("/batch/account_types", ctrl.Account.BatchTypes)
	r.POST("/batch/full_year_refresh", ctrl.Balance.FullYearRefresh)
	r.POST("/batch/bs_periods", ctrl.Balance.BSPeriods)

	r.POST("/retained-earnings", ctrl.Equity.RetainedEarnings)
	r.POST("/net-income", ctrl.Equity.NetIncome)
	r.POST("/cta", ctrl.Equity.CTA)

	r.GET("/transactions", ctrl.Transactions.List)

	return r
}
