package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/parking-service/internal/api/dto"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/service"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ParkingHandler exposes slot allocation endpoints.
type ParkingHandler struct {
	service *service.ParkingService
}

// NewParkingHandler constructs handler.
func NewParkingHandler(parkingService *service.ParkingService) *ParkingHandler {
	return &ParkingHandler{service: parkingService}
}

// ParkVehicle POST /api/v1/parking/vehicles.
func (h *ParkingHandler) ParkVehicle(c *fiber.Ctx) error {
	var req dto.ParkVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.VehicleType == nil || strings.TrimSpace(req.VehicleNumber) == "" {
		return apperrors.NewValidationError("vehicle_type, vehicle_number required", nil)
	}

	occ, err := h.service.Park(c.UserContext(), service.ParkInput{
		VehicleCode:     *req.VehicleType,
		VehicleNumber:   req.VehicleNumber,
		PaymentApproved: req.PaymentApproved,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": occupancyResponse(occ)})
}

// ReleaseToken DELETE /api/v1/parking/tokens/:token.
func (h *ParkingHandler) ReleaseToken(c *fiber.Ctx) error {
	occ, err := h.service.Release(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReleaseResponse{
		Token:         occ.Token,
		Slot:          occ.Slot,
		Tier:          occ.Tier,
		VehicleNumber: occ.VehicleID,
	}})
}

// GetToken GET /api/v1/parking/tokens/:token.
func (h *ParkingHandler) GetToken(c *fiber.Ctx) error {
	occ, err := h.service.Lookup(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": occupancyResponse(occ)})
}

// ListSlots GET /api/v1/parking/slots.
func (h *ParkingHandler) ListSlots(c *fiber.Ctx) error {
	status := h.service.Status(c.UserContext())

	resp := dto.SlotStatusResponse{
		Tiers: make([]dto.TierSummaryResponse, 0, len(status.Tiers)),
		Slots: make([]dto.SlotResponse, 0, len(status.Slots)),
	}
	for _, t := range status.Tiers {
		resp.Tiers = append(resp.Tiers, dto.TierSummaryResponse{
			Tier:     t.Tier,
			Label:    t.Tier.Label(),
			Capacity: t.Capacity,
			Free:     t.Free,
			Occupied: t.Occupied,
		})
	}
	for _, s := range status.Slots {
		row := dto.SlotResponse{Tier: s.Tier, Slot: s.Slot, Occupied: s.Occupied()}
		if s.Occupancy != nil {
			token := s.Occupancy.Token
			vehicle := s.Occupancy.VehicleID
			row.Token = &token
			row.VehicleNumber = &vehicle
		}
		resp.Slots = append(resp.Slots, row)
	}
	return c.JSON(fiber.Map{"data": resp})
}

// VehicleSessions GET /api/v1/parking/vehicles/:number/sessions.
func (h *ParkingHandler) VehicleSessions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	sessions, err := h.service.VehicleHistory(c.UserContext(), c.Params("number"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ParkingSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, dto.ParkingSessionResponse{
			ID:            s.ID,
			Token:         s.Token,
			Tier:          s.Tier,
			Slot:          s.Slot,
			VehicleNumber: s.VehicleNumber,
			Category:      s.Category,
			ParkedAt:      s.ParkedAt,
			ReleasedAt:    s.ReleasedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items, "meta": fiber.Map{"limit": limit, "offset": offset}})
}

func occupancyResponse(occ *domain.Occupancy) dto.OccupancyResponse {
	return dto.OccupancyResponse{
		Token:         occ.Token,
		Slot:          occ.Slot,
		Tier:          occ.Tier,
		VehicleNumber: occ.VehicleID,
		Category:      occ.Category,
		ParkedAt:      occ.ParkedAt,
	}
}
