package handler

import (
	"github.com/aidledger/backend/internal/application/relief"
	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AccountHandler handles account balances and registration
type AccountHandler struct {
	BaseHandler
	ledger *relief.LedgerService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(ledgerService *relief.LedgerService) *AccountHandler {
	return &AccountHandler{ledger: ledgerService}
}

// TopUpRequest is the POST /accounts/balance body
type TopUpRequest struct {
	Wallet string          `json:"wallet" binding:"omitempty,max=128"`
	Amount decimal.Decimal `json:"amount" binding:"required,gt=0,amount"`
}

// RegisterAccountRequest is the POST /accounts body
type RegisterAccountRequest struct {
	Address string `json:"address" binding:"required,max=128"`
	Role    string `json:"role" binding:"required,oneof=DONOR BENEFICIARY AGENCY ADMIN"`
}

// TopUp credits a wallet, creating its account on first use
//
// @ID           topUpBalance
// @Summary      Top up a wallet
// @Description  Credit a wallet balance, opening the account on first use
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body TopUpRequest true "Top-up request"
// @Success      200 {object} dto.Response{data=relief.BalanceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts/balance [post]
func (h *AccountHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if !h.BindJSON(c, &req) {
		return
	}

	wallet, err := actingWallet(c, req.Wallet, ledger.RoleAdmin)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	balance, err := h.ledger.TopUp(c.Request.Context(), relief.TopUpRequest{Address: wallet, Amount: req.Amount})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// GetBalance reports a wallet balance; unknown wallets read as zero
//
// @ID           getBalance
// @Summary      Get wallet balance
// @Description  Report the balance of a wallet. Unknown wallets read as zero.
// @Tags         accounts
// @Produce      json
// @Param        wallet query string false "Wallet address, defaults to the caller"
// @Success      200 {object} dto.Response{data=relief.BalanceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts/balance [get]
func (h *AccountHandler) GetBalance(c *gin.Context) {
	var q WalletQuery
	if !h.BindQuery(c, &q) {
		return
	}

	wallet, err := actingWallet(c, q.Wallet, ledger.RoleAgency, ledger.RoleAdmin)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), wallet)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// Register creates an account with an explicit role
//
// @ID           registerAccount
// @Summary      Register an account
// @Description  Open an account with an explicit role. Requires the AGENCY or ADMIN role.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body RegisterAccountRequest true "Account registration request"
// @Success      201 {object} dto.Response{data=relief.AccountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts [post]
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	account, err := h.ledger.RegisterAccount(c.Request.Context(), relief.RegisterAccountRequest{
		Address: req.Address,
		Role:    ledger.Role(req.Role),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}
