package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/allocator"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

// ErrPaymentDeclined is returned by Park when the caller reports a refused payment.
var ErrPaymentDeclined = errors.New("payment declined")

// Error codes rendered by the HTTP layer.
const (
	CodeInvalidVehicleType = "INVALID_VEHICLE_TYPE"
	CodePaymentDeclined    = "PAYMENT_DECLINED"
	CodeNoCapacity         = "NO_CAPACITY"
	CodeTokenNotFound      = "TOKEN_NOT_FOUND"
)

// Allocator is the slot allocation core used by the service.
type Allocator interface {
	Assign(ctx context.Context, category domain.VehicleCategory, vehicleID string) (domain.Occupancy, error)
	Release(ctx context.Context, token domain.Token) (domain.Occupancy, error)
	Lookup(ctx context.Context, token domain.Token) (domain.Occupancy, error)
	Snapshot(ctx context.Context) []domain.SlotState
	Summary(ctx context.Context) []domain.TierSummary
}

// TierObserver receives tier counts after every mutation.
type TierObserver interface {
	ObserveTiers(summaries []domain.TierSummary)
}

// ParkingService coordinates vehicle arrival and departure.
type ParkingService struct {
	allocator  Allocator
	sessions   repository.ParkingSessionRepository
	dispatcher events.Dispatcher
	observer   TierObserver
	logger     *zap.Logger
	now        func() time.Time
}

// ParkingDependencies bundles collaborators for the parking service.
type ParkingDependencies struct {
	Allocator   Allocator
	SessionRepo repository.ParkingSessionRepository
	Dispatcher  events.Dispatcher
	Observer    TierObserver
	Logger      *zap.Logger
}

// ParkInput describes an arriving vehicle. PaymentApproved carries the
// caller's payment decision; the service performs no payment itself.
type ParkInput struct {
	VehicleCode     int
	VehicleNumber   string
	PaymentApproved bool
}

// StatusView is the full occupancy picture.
type StatusView struct {
	Tiers []domain.TierSummary
	Slots []domain.SlotState
}

// NewParkingService constructs the service.
func NewParkingService(deps ParkingDependencies) *ParkingService {
	sessions := deps.SessionRepo
	if sessions == nil {
		sessions = repository.NewNopParkingSessionRepository()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ParkingService{
		allocator:  deps.Allocator,
		sessions:   sessions,
		dispatcher: deps.Dispatcher,
		observer:   deps.Observer,
		logger:     logger,
		now:        time.Now,
	}
	s.observe(context.Background())
	return s
}

// Park assigns the lowest free slot of the tier serving the vehicle code.
func (s *ParkingService) Park(ctx context.Context, input ParkInput) (*domain.Occupancy, error) {
	category := domain.ClassifyVehicle(input.VehicleCode)
	if category == domain.CategoryInvalid {
		return nil, apperrors.Wrap(allocator.ErrInvalidCategory, CodeInvalidVehicleType,
			"vehicle type must be 2, 3 or 4", http.StatusBadRequest,
			map[string]any{"vehicle_type": input.VehicleCode})
	}
	vehicleNumber := strings.TrimSpace(input.VehicleNumber)
	if vehicleNumber == "" {
		return nil, apperrors.NewValidationError("vehicle_number required", nil)
	}
	if !input.PaymentApproved {
		return nil, apperrors.Wrap(ErrPaymentDeclined, CodePaymentDeclined,
			"payment was not approved", http.StatusPaymentRequired, nil)
	}

	occ, err := s.allocator.Assign(ctx, category, vehicleNumber)
	if err != nil {
		if errors.Is(err, allocator.ErrNoCapacity) {
			s.publishTierFull(ctx, category)
		}
		return nil, mapAllocatorError(err)
	}

	s.logger.Info("vehicle parked",
		zap.String("token", string(occ.Token)),
		zap.Int("tier", int(occ.Tier)),
		zap.Int("slot", occ.Slot),
		zap.String("vehicle_number", occ.VehicleID))

	session := &domain.ParkingSession{
		ID:            uuid.NewString(),
		Token:         occ.Token,
		Tier:          occ.Tier,
		Slot:          occ.Slot,
		VehicleNumber: occ.VehicleID,
		Category:      occ.Category,
		ParkedAt:      occ.ParkedAt,
	}
	if err := s.sessions.Open(ctx, session); err != nil {
		s.logger.Warn("failed to record parking session", zap.String("token", string(occ.Token)), zap.Error(err))
	} else if _, err := s.allocator.Lookup(ctx, occ.Token); err != nil {
		// Released before the row existed; the release found nothing to close.
		s.closeSession(ctx, occ.Token, s.now())
	}

	s.publish(ctx, events.EventVehicleParked, occ.Token, events.VehicleParkedPayload{
		Tier:          occ.Tier,
		Slot:          occ.Slot,
		VehicleNumber: occ.VehicleID,
		Category:      occ.Category,
	})
	s.observe(ctx)
	return &occ, nil
}

// Release frees the slot held by token.
func (s *ParkingService) Release(ctx context.Context, rawToken string) (*domain.Occupancy, error) {
	token := domain.Token(strings.TrimSpace(rawToken))
	occ, err := s.allocator.Release(ctx, token)
	if err != nil {
		return nil, mapAllocatorError(err)
	}

	releasedAt := s.now()
	s.logger.Info("vehicle released",
		zap.String("token", string(occ.Token)),
		zap.Int("tier", int(occ.Tier)),
		zap.Int("slot", occ.Slot),
		zap.String("vehicle_number", occ.VehicleID))

	s.closeSession(ctx, occ.Token, releasedAt)

	s.publish(ctx, events.EventVehicleReleased, occ.Token, events.VehicleReleasedPayload{
		Tier:          occ.Tier,
		Slot:          occ.Slot,
		VehicleNumber: occ.VehicleID,
		Duration:      releasedAt.Sub(occ.ParkedAt),
	})
	s.observe(ctx)
	return &occ, nil
}

// Lookup returns the active occupancy for token.
func (s *ParkingService) Lookup(ctx context.Context, rawToken string) (*domain.Occupancy, error) {
	occ, err := s.allocator.Lookup(ctx, domain.Token(strings.TrimSpace(rawToken)))
	if err != nil {
		return nil, mapAllocatorError(err)
	}
	return &occ, nil
}

// Status returns tier counts and every slot in display order.
func (s *ParkingService) Status(ctx context.Context) StatusView {
	return StatusView{
		Tiers: s.allocator.Summary(ctx),
		Slots: s.allocator.Snapshot(ctx),
	}
}

// VehicleHistory lists audit sessions for a vehicle, newest first.
func (s *ParkingService) VehicleHistory(ctx context.Context, vehicleNumber string, limit, offset int) ([]domain.ParkingSession, error) {
	vehicleNumber = strings.TrimSpace(vehicleNumber)
	if vehicleNumber == "" {
		return nil, apperrors.NewValidationError("vehicle_number required", nil)
	}
	sessions, err := s.sessions.ListByVehicle(ctx, vehicleNumber, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return sessions, nil
}

func (s *ParkingService) closeSession(ctx context.Context, token domain.Token, releasedAt time.Time) {
	err := s.sessions.Close(ctx, token, releasedAt)
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		s.logger.Warn("no open parking session for token", zap.String("token", string(token)))
	default:
		s.logger.Warn("failed to close parking session", zap.String("token", string(token)), zap.Error(err))
	}
}

func mapAllocatorError(err error) error {
	switch {
	case errors.Is(err, allocator.ErrInvalidCategory):
		return apperrors.Wrap(err, CodeInvalidVehicleType, "vehicle type must be 2, 3 or 4", http.StatusBadRequest, nil)
	case errors.Is(err, allocator.ErrNoCapacity):
		return apperrors.Wrap(err, CodeNoCapacity, "no free slot available", http.StatusConflict, nil)
	case errors.Is(err, allocator.ErrTokenNotFound):
		return apperrors.Wrap(err, CodeTokenNotFound, "invalid token or vehicle not found", http.StatusNotFound, nil)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (s *ParkingService) publishTierFull(ctx context.Context, category domain.VehicleCategory) {
	tier, _ := category.Tier()
	capacity := 0
	for _, summary := range s.allocator.Summary(ctx) {
		if summary.Tier == tier {
			capacity = summary.Capacity
		}
	}
	s.logger.Warn("tier full", zap.Int("tier", int(tier)), zap.Int("capacity", capacity))
	s.publish(ctx, events.EventTierFull, "", events.TierFullPayload{Tier: tier, Capacity: capacity})
}

func (s *ParkingService) publish(ctx context.Context, eventType events.EventType, token domain.Token, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Token:     string(token),
		Timestamp: s.now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event delivery failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func (s *ParkingService) observe(ctx context.Context) {
	if s.observer == nil || s.allocator == nil {
		return
	}
	s.observer.ObserveTiers(s.allocator.Summary(ctx))
}
