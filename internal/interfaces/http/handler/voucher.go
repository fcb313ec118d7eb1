package handler

import (
	"github.com/aidledger/backend/internal/application/relief"
	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherHandler handles voucher issuance, claims, listing and redemption
type VoucherHandler struct {
	BaseHandler
	vouchers *relief.VoucherService
	queries  *relief.VoucherQueryService
}

// NewVoucherHandler creates a new VoucherHandler
func NewVoucherHandler(vouchers *relief.VoucherService, queries *relief.VoucherQueryService) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers, queries: queries}
}

// IssueVoucherRequest is the POST /vouchers/issue body
type IssueVoucherRequest struct {
	ZoneID        string          `json:"zone_id" binding:"required,uuid"`
	BeneficiaryID string          `json:"beneficiary_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount" binding:"required,gt=0,amount"`
}

// ClaimVoucherRequest is the POST /beneficiary/vouchers body
type ClaimVoucherRequest struct {
	Wallet string `json:"wallet" binding:"omitempty,max=128"`
	ZoneID string `json:"zone_id" binding:"required,uuid"`
}

// RedeemVoucherRequest is the POST /vouchers/redeem body
type RedeemVoucherRequest struct {
	QRCode string `json:"qr_code" binding:"required,max=128"`
}

// WalletQuery selects the wallet of a read endpoint
type WalletQuery struct {
	Wallet string `form:"wallet" binding:"omitempty,max=128"`
}

// VoucherListResponse wraps a beneficiary's vouchers
type VoucherListResponse struct {
	Vouchers []relief.VoucherSummary `json:"vouchers"`
}

// Issue reserves zone allocation and issues a voucher to a beneficiary
//
// @ID           issueVoucher
// @Summary      Issue a voucher
// @Description  Reserve part of the zone allocation and issue a voucher to a beneficiary. Requires the AGENCY or ADMIN role.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        request body IssueVoucherRequest true "Voucher issue request"
// @Success      201 {object} dto.Response{data=relief.VoucherResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vouchers/issue [post]
func (h *VoucherHandler) Issue(c *gin.Context) {
	var req IssueVoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}

	voucher, err := h.vouchers.Issue(c.Request.Context(), relief.IssueVoucherRequest{
		ZoneID:        uuid.MustParse(req.ZoneID),
		BeneficiaryID: uuid.MustParse(req.BeneficiaryID),
		Amount:        req.Amount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, voucher)
}

// Claim issues the default claim amount to the calling beneficiary
//
// @ID           claimVoucher
// @Summary      Claim a voucher
// @Description  Issue the configured claim amount to the calling beneficiary from the zone allocation
// @Tags         beneficiary
// @Accept       json
// @Produce      json
// @Param        request body ClaimVoucherRequest true "Claim request"
// @Success      201 {object} dto.Response{data=relief.VoucherResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /beneficiary/vouchers [post]
func (h *VoucherHandler) Claim(c *gin.Context) {
	var req ClaimVoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}

	wallet, err := actingWallet(c, req.Wallet)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	voucher, err := h.vouchers.Claim(c.Request.Context(), relief.ClaimVoucherRequest{
		BeneficiaryAddress: wallet,
		ZoneID:             uuid.MustParse(req.ZoneID),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, voucher)
}

// List returns the beneficiary's vouchers, newest first
//
// @ID           listVouchers
// @Summary      List beneficiary vouchers
// @Description  List the vouchers of a beneficiary wallet, newest first. Expired vouchers are reported as EXPIRED.
// @Tags         beneficiary
// @Produce      json
// @Param        wallet query string false "Beneficiary wallet, defaults to the caller"
// @Success      200 {object} dto.Response{data=VoucherListResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /beneficiary/vouchers [get]
func (h *VoucherHandler) List(c *gin.Context) {
	var q WalletQuery
	if !h.BindQuery(c, &q) {
		return
	}

	wallet, err := actingWallet(c, q.Wallet, ledger.RoleAgency, ledger.RoleAdmin)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	vouchers, err := h.queries.ListVouchers(c.Request.Context(), wallet)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, VoucherListResponse{Vouchers: vouchers})
}

// Redeem spends a voucher by its redemption token
//
// @ID           redeemVoucher
// @Summary      Redeem a voucher
// @Description  Spend an issued voucher by its QR token. A voucher redeems at most once.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        request body RedeemVoucherRequest true "Redemption request"
// @Success      200 {object} dto.Response{data=relief.VoucherResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vouchers/redeem [post]
func (h *VoucherHandler) Redeem(c *gin.Context) {
	var req RedeemVoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}

	voucher, err := h.vouchers.Redeem(c.Request.Context(), req.QRCode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, voucher)
}
