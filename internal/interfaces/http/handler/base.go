// Package handler serves the relief ledger operations over HTTP.
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/aidledger/backend/internal/infrastructure/logger"
	"github.com/aidledger/backend/internal/interfaces/http/dto"
	"github.com/aidledger/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errActorMismatch means an authenticated wallet tried to act for another wallet
var errActorMismatch = errors.New("wallet does not match the authenticated actor")

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BindJSON binds the body into req, answering 400 itself when binding fails
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// BindQuery binds query parameters into req, answering 400 itself when binding fails
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// HandleError converts err to the error envelope.
// Domain errors keep their message; anything else is logged and reported as ERR_INTERNAL.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if errors.Is(err, errActorMismatch) {
		h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, "Wallet does not match the authenticated actor")
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			logger.L(c.Request.Context()).Error("Request failed", zap.String("code", domainErr.Code), zap.Error(err))
		}
		if code == dto.ErrCodeInternal {
			h.Error(c, status, code, "An unexpected error occurred")
			return
		}
		h.Error(c, status, code, domainErr.Message)
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled error", zap.Error(err))
	_ = c.Error(err)
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// actingWallet picks the wallet a request acts for.
// Without an authenticated actor the requested wallet is used as given. An actor
// may act for itself, and only the privileged roles may name another wallet.
func actingWallet(c *gin.Context, requested string, privileged ...ledger.Role) (string, error) {
	requested = strings.TrimSpace(requested)
	actor := middleware.GetActorWallet(c)
	if actor == "" {
		return requested, nil
	}
	if requested == "" || ledger.NormalizeAddress(requested) == ledger.NormalizeAddress(actor) {
		return actor, nil
	}
	if claims := middleware.GetJWTClaims(c); claims != nil && claims.HasRole(privileged...) {
		return requested, nil
	}
	return "", errActorMismatch
}
