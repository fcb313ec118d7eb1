package handler

import (
	"github.com/aidledger/backend/internal/application/relief"
	domain "github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ZoneHandler handles zone provisioning and lookup
type ZoneHandler struct {
	BaseHandler
	zones *relief.ZoneService
}

// NewZoneHandler creates a new ZoneHandler
func NewZoneHandler(zones *relief.ZoneService) *ZoneHandler {
	return &ZoneHandler{zones: zones}
}

// CreateZoneRequest is the POST /zones body. Omitted optional fields take the zone defaults.
type CreateZoneRequest struct {
	Name      string          `json:"name" binding:"required,max=200"`
	Location  string          `json:"location" binding:"required,max=200"`
	Budget    decimal.Decimal `json:"budget" binding:"required,gt=0,amount"`
	Type      string          `json:"type" binding:"omitempty,max=50"`
	Latitude  float64         `json:"latitude" binding:"omitempty,latitude"`
	Longitude float64         `json:"longitude" binding:"omitempty,longitude"`
	Radius    int             `json:"radius" binding:"omitempty,gt=0"`
	Status    string          `json:"status" binding:"omitempty,oneof=PENDING ACTIVE CLOSED"`
	Severity  string          `json:"severity" binding:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
}

// ZoneIDRequest binds the :id path parameter
type ZoneIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// Create provisions a zone with a budget
//
// @ID           createZone
// @Summary      Create a zone
// @Description  Provision a relief zone with a budget. Requires the AGENCY or ADMIN role.
// @Tags         zones
// @Accept       json
// @Produce      json
// @Param        request body CreateZoneRequest true "Zone creation request"
// @Success      201 {object} dto.Response{data=relief.ZoneResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /zones [post]
func (h *ZoneHandler) Create(c *gin.Context) {
	var req CreateZoneRequest
	if !h.BindJSON(c, &req) {
		return
	}

	zone, err := h.zones.Create(c.Request.Context(), relief.CreateZoneRequest{
		Name:      req.Name,
		Location:  req.Location,
		Type:      req.Type,
		Budget:    req.Budget,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
		Status:    domain.ZoneStatus(req.Status),
		Severity:  domain.Severity(req.Severity),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, zone)
}

// List returns all zones, newest first
//
// @ID           listZones
// @Summary      List zones
// @Description  List every zone with its allocation counters, newest first
// @Tags         zones
// @Produce      json
// @Success      200 {object} dto.Response{data=[]relief.ZoneResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /zones [get]
func (h *ZoneHandler) List(c *gin.Context) {
	zones, err := h.zones.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, zones)
}

// Get returns one zone
//
// @ID           getZoneById
// @Summary      Get zone by ID
// @Description  Retrieve a zone and its allocation counters
// @Tags         zones
// @Produce      json
// @Param        id path string true "Zone ID" format(uuid)
// @Success      200 {object} dto.Response{data=relief.ZoneResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /zones/{id} [get]
func (h *ZoneHandler) Get(c *gin.Context) {
	var req ZoneIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	zone, err := h.zones.GetByID(c.Request.Context(), uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, zone)
}
