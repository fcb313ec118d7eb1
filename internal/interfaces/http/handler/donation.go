package handler

import (
	"github.com/aidledger/backend/internal/application/relief"
	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader lets clients retry a donation without double-charging
const IdempotencyKeyHeader = "Idempotency-Key"

// DonationHandler handles donation intake
type DonationHandler struct {
	BaseHandler
	donations *relief.DonationService
}

// NewDonationHandler creates a new DonationHandler
func NewDonationHandler(donations *relief.DonationService) *DonationHandler {
	return &DonationHandler{donations: donations}
}

// DonateRequest is the POST /donations body.
// DonorAddress defaults to the authenticated wallet; empty and unauthenticated means anonymous.
type DonateRequest struct {
	ZoneID        string          `json:"zone_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount" binding:"required,gt=0,amount"`
	DonorAddress  string          `json:"donor_address" binding:"omitempty,max=128"`
	BeneficiaryID string          `json:"beneficiary_id" binding:"omitempty,uuid"`
}

// Donate moves money from the donor into a zone allocation
//
// @ID           donate
// @Summary      Donate to a zone
// @Description  Debit the donor wallet and credit the zone allocation. With beneficiary_id set a voucher is issued from the donation in the same transaction.
// @Tags         donations
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the first result for a repeated key"
// @Param        request body DonateRequest true "Donation request"
// @Success      201 {object} dto.Response{data=relief.DonateResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /donations [post]
func (h *DonationHandler) Donate(c *gin.Context) {
	var req DonateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	donor, err := actingWallet(c, req.DonorAddress, ledger.RoleAdmin)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	cmd := relief.DonateRequest{
		ZoneID:         uuid.MustParse(req.ZoneID),
		Amount:         req.Amount,
		DonorAddress:   donor,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	}
	if req.BeneficiaryID != "" {
		id := uuid.MustParse(req.BeneficiaryID)
		cmd.BeneficiaryID = &id
	}

	result, err := h.donations.Donate(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
