package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/spec-kit/parking-service/internal/allocator"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/events"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	open     map[domain.Token]domain.ParkingSession
	closed   []domain.ParkingSession
	failOpen error
	// beforeOpen runs before the row is stored, outside the lock.
	beforeOpen func()
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{open: map[domain.Token]domain.ParkingSession{}}
}

func (r *fakeSessionRepo) Open(_ context.Context, s *domain.ParkingSession) error {
	if r.beforeOpen != nil {
		r.beforeOpen()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOpen != nil {
		return r.failOpen
	}
	r.open[s.Token] = *s
	return nil
}

func (r *fakeSessionRepo) Close(_ context.Context, token domain.Token, releasedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.open[token]
	if !ok {
		return pgx.ErrNoRows
	}
	s.ReleasedAt = &releasedAt
	delete(r.open, token)
	r.closed = append(r.closed, s)
	return nil
}

func (r *fakeSessionRepo) ListOpen(context.Context, int) ([]domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ParkingSession, 0, len(r.open))
	for _, s := range r.open {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSessionRepo) ListByVehicle(_ context.Context, vehicle string, _, _ int) ([]domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ParkingSession
	for _, s := range r.closed {
		if s.VehicleNumber == vehicle {
			out = append(out, s)
		}
	}
	return out, nil
}

type recordingObserver struct {
	last []domain.TierSummary
}

func (o *recordingObserver) ObserveTiers(s []domain.TierSummary) { o.last = s }

type fixture struct {
	svc      *ParkingService
	logs     *observer.ObservedLogs
	repo     *fakeSessionRepo
	observer *recordingObserver
	events   []events.Event
}

func newFixture(t *testing.T, tier1, tier2 int) *fixture {
	t.Helper()
	base, err := allocator.NewSlotAllocator(tier1, tier2)
	require.NoError(t, err)
	alloc, err := allocator.NewInstrumentedAllocator(base,
		tracenoop.NewTracerProvider().Tracer("test"),
		metricnoop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{repo: newFakeSessionRepo(), observer: &recordingObserver{}, logs: logs}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{events.EventVehicleParked, events.EventVehicleReleased, events.EventTierFull} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.events = append(f.events, e)
			return nil
		})
	}
	f.svc = NewParkingService(ParkingDependencies{
		Allocator:   alloc,
		SessionRepo: f.repo,
		Dispatcher:  dispatcher,
		Observer:    f.observer,
		Logger:      zap.New(core),
	})
	return f
}

func requireCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, code, de.Code)
	assert.Equal(t, status, de.HTTPStatus)
}

func TestNewParkingServiceObservesInitialCounts(t *testing.T) {
	f := newFixture(t, 2, 3)
	require.Len(t, f.observer.last, 2)
	assert.Equal(t, 3, f.observer.last[1].Free)
}

func TestParkAssignsByVehicleType(t *testing.T) {
	f := newFixture(t, 2, 2)
	ctx := context.Background()

	bike, err := f.svc.Park(ctx, ParkInput{VehicleCode: 2, VehicleNumber: "KA01AB1", PaymentApproved: true})
	require.NoError(t, err)
	assert.Equal(t, domain.Token("T2S1"), bike.Token)
	assert.Equal(t, domain.CategoryTwoWheeler, bike.Category)

	auto, err := f.svc.Park(ctx, ParkInput{VehicleCode: 3, VehicleNumber: " KA01AB2 ", PaymentApproved: true})
	require.NoError(t, err)
	assert.Equal(t, domain.Token("T1S1"), auto.Token)
	assert.Equal(t, "KA01AB2", auto.VehicleID)

	car, err := f.svc.Park(ctx, ParkInput{VehicleCode: 4, VehicleNumber: "KA01AB3", PaymentApproved: true})
	require.NoError(t, err)
	assert.Equal(t, domain.Token("T1S2"), car.Token)

	assert.Len(t, f.repo.open, 3)
	require.Len(t, f.events, 3)
	assert.Equal(t, events.EventVehicleParked, f.events[0].Type)
	assert.Equal(t, "T2S1", f.events[0].Token)
	assert.Equal(t, 0, f.observer.last[0].Free)
}

func TestParkRejectsInvalidVehicleType(t *testing.T) {
	f := newFixture(t, 1, 1)

	_, err := f.svc.Park(context.Background(), ParkInput{VehicleCode: 5, VehicleNumber: "X", PaymentApproved: true})
	requireCode(t, err, CodeInvalidVehicleType, http.StatusBadRequest)
	assert.ErrorIs(t, err, allocator.ErrInvalidCategory)
	assert.Empty(t, f.events)
}

func TestParkRejectsDeclinedPayment(t *testing.T) {
	f := newFixture(t, 1, 1)

	_, err := f.svc.Park(context.Background(), ParkInput{VehicleCode: 4, VehicleNumber: "X"})
	requireCode(t, err, CodePaymentDeclined, http.StatusPaymentRequired)
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	status := f.svc.Status(context.Background())
	assert.Equal(t, 1, status.Tiers[0].Free)
}

func TestParkRequiresVehicleNumber(t *testing.T) {
	f := newFixture(t, 1, 1)

	_, err := f.svc.Park(context.Background(), ParkInput{VehicleCode: 2, VehicleNumber: "  ", PaymentApproved: true})
	requireCode(t, err, "VALIDATION_FAILED", http.StatusBadRequest)
}

func TestParkWhenTierFull(t *testing.T) {
	f := newFixture(t, 1, 0)
	ctx := context.Background()

	_, err := f.svc.Park(ctx, ParkInput{VehicleCode: 2, VehicleNumber: "BIKE", PaymentApproved: true})
	requireCode(t, err, CodeNoCapacity, http.StatusConflict)
	assert.ErrorIs(t, err, allocator.ErrNoCapacity)

	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventTierFull, f.events[0].Type)
	assert.Equal(t, events.TierFullPayload{Tier: domain.Tier2, Capacity: 0}, f.events[0].Payload)

	_, err = f.svc.Park(ctx, ParkInput{VehicleCode: 4, VehicleNumber: "CAR", PaymentApproved: true})
	require.NoError(t, err)
}

func TestParkSurvivesAuditFailure(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.repo.failOpen = errors.New("db down")

	occ, err := f.svc.Park(context.Background(), ParkInput{VehicleCode: 4, VehicleNumber: "CAR", PaymentApproved: true})
	require.NoError(t, err)
	assert.Equal(t, domain.Token("T1S1"), occ.Token)
}

func TestReleaseRoundTrip(t *testing.T) {
	f := newFixture(t, 2, 2)
	ctx := context.Background()

	occ, err := f.svc.Park(ctx, ParkInput{VehicleCode: 4, VehicleNumber: "CAR", PaymentApproved: true})
	require.NoError(t, err)

	released, err := f.svc.Release(ctx, " T1S1 ")
	require.NoError(t, err)
	assert.Equal(t, "CAR", released.VehicleID)
	assert.Equal(t, occ.Slot, released.Slot)

	require.Len(t, f.repo.closed, 1)
	assert.NotNil(t, f.repo.closed[0].ReleasedAt)
	assert.Equal(t, events.EventVehicleReleased, f.events[len(f.events)-1].Type)
	assert.Equal(t, 2, f.observer.last[0].Free)

	_, err = f.svc.Release(ctx, "T1S1")
	requireCode(t, err, CodeTokenNotFound, http.StatusNotFound)
	assert.ErrorIs(t, err, allocator.ErrTokenNotFound)
}

func TestReleaseUnknownPrefix(t *testing.T) {
	f := newFixture(t, 1, 1)

	_, err := f.svc.Release(context.Background(), "XYZ")
	requireCode(t, err, CodeTokenNotFound, http.StatusNotFound)
}

func TestLookup(t *testing.T) {
	f := newFixture(t, 1, 1)
	ctx := context.Background()
	_, err := f.svc.Park(ctx, ParkInput{VehicleCode: 2, VehicleNumber: "BIKE", PaymentApproved: true})
	require.NoError(t, err)

	occ, err := f.svc.Lookup(ctx, "T2S1")
	require.NoError(t, err)
	assert.Equal(t, "BIKE", occ.VehicleID)

	_, err = f.svc.Lookup(ctx, "T1S1")
	requireCode(t, err, CodeTokenNotFound, http.StatusNotFound)
}

func TestVehicleHistory(t *testing.T) {
	f := newFixture(t, 1, 1)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := f.svc.Park(ctx, ParkInput{VehicleCode: 4, VehicleNumber: "CAR", PaymentApproved: true})
		require.NoError(t, err)
		_, err = f.svc.Release(ctx, "T1S1")
		require.NoError(t, err)
	}

	history, err := f.svc.VehicleHistory(ctx, "CAR", 10, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = f.svc.VehicleHistory(ctx, "", 10, 0)
	requireCode(t, err, "VALIDATION_FAILED", http.StatusBadRequest)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, 2, 1)
	ctx := context.Background()
	_, err := f.svc.Park(ctx, ParkInput{VehicleCode: 3, VehicleNumber: "AUTO", PaymentApproved: true})
	require.NoError(t, err)

	status := f.svc.Status(ctx)
	require.Len(t, status.Slots, 3)
	assert.True(t, status.Slots[0].Occupied())
	assert.False(t, status.Slots[1].Occupied())
	assert.Equal(t, domain.Tier2, status.Slots[2].Tier)
	assert.Equal(t, 1, status.Tiers[0].Occupied)
}

func TestReleaseBeforeSessionRecorded(t *testing.T) {
	f := newFixture(t, 1, 1)
	ctx := context.Background()
	f.repo.beforeOpen = func() {
		f.repo.beforeOpen = nil
		_, err := f.svc.Release(ctx, "T1S1")
		require.NoError(t, err)
	}

	_, err := f.svc.Park(ctx, ParkInput{VehicleCode: 4, VehicleNumber: "CAR", PaymentApproved: true})
	require.NoError(t, err)

	assert.Equal(t, 1, f.logs.FilterMessage("no open parking session for token").Len())
	assert.Empty(t, f.repo.open)
	require.Len(t, f.repo.closed, 1)
	assert.Equal(t, "CAR", f.repo.closed[0].VehicleNumber)
	assert.NotNil(t, f.repo.closed[0].ReleasedAt)
}

func TestReleaseWithoutRecordedSession(t *testing.T) {
	f := newFixture(t, 1, 1)
	ctx := context.Background()
	f.repo.failOpen = errors.New("db down")

	_, err := f.svc.Park(ctx, ParkInput{VehicleCode: 2, VehicleNumber: "BIKE", PaymentApproved: true})
	require.NoError(t, err)
	_, err = f.svc.Release(ctx, "T2S1")
	require.NoError(t, err)

	assert.Equal(t, 1, f.logs.FilterMessage("no open parking session for token").Len())
	assert.Zero(t, f.logs.FilterMessage("failed to close parking session").Len())
}
