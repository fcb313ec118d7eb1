package router

import (
	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/interfaces/http/handler"
	"github.com/aidledger/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the HTTP handlers of the relief API
type Handlers struct {
	Donations *handler.DonationHandler
	Vouchers  *handler.VoucherHandler
	Accounts  *handler.AccountHandler
	Zones     *handler.ZoneHandler
	System    *handler.SystemHandler
}

// RegisterReliefRoutes mounts every relief ledger route on r.
// Provisioning and direct issuance are restricted to agency and admin tokens.
func RegisterReliefRoutes(r *Router, h Handlers) *Router {
	staff := middleware.RequireRole(ledger.RoleAgency, ledger.RoleAdmin)

	donations := NewDomainGroup("donations", "/donations").
		POST("", h.Donations.Donate)

	vouchers := NewDomainGroup("vouchers", "/vouchers").
		POST("/issue", staff, h.Vouchers.Issue).
		POST("/redeem", h.Vouchers.Redeem)

	beneficiary := NewDomainGroup("beneficiary", "/beneficiary").
		POST("/vouchers", h.Vouchers.Claim).
		GET("/vouchers", h.Vouchers.List)

	accounts := NewDomainGroup("accounts", "/accounts").
		POST("", staff, h.Accounts.Register).
		POST("/balance", h.Accounts.TopUp).
		GET("/balance", h.Accounts.GetBalance)

	zones := NewDomainGroup("zones", "/zones").
		POST("", staff, h.Zones.Create).
		GET("", h.Zones.List).
		GET("/:id", h.Zones.Get)

	system := NewDomainGroup("system", "").
		GET("/health", h.System.Health).
		GET("/system/info", h.System.Info)

	return r.Register(donations).
		Register(vouchers).
		Register(beneficiary).
		Register(accounts).
		Register(zones).
		Register(system)
}
