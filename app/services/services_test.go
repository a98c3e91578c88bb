package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories/memory"
	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeGateway struct {
	secret string
	err    error
	calls  []int64
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, _ string) (string, error) {
	g.calls = append(g.calls, amount)
	return g.secret, g.err
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs map[string][][]byte
}

func (p *recordingPublisher) Publish(topic string, data []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.msgs == nil {
		p.msgs = make(map[string][][]byte)
	}
	p.msgs[topic] = append(p.msgs[topic], data)
	return true
}

type fixture struct {
	stores *memory.Stores
	svc    *services.Services
	gw     *fakeGateway
	live   *recordingPublisher
}

func newFixture() *fixture {
	stores := memory.New()
	gw := &fakeGateway{secret: "pi_secret"}
	live := &recordingPublisher{}
	svc := services.New(stores.Set(), services.Config{Gateway: gw, Currency: "usd", Live: live})
	return &fixture{stores: stores, svc: svc, gw: gw, live: live}
}

var ctx = context.Background()

// ─── Parcels ──────────────────────────────────────────────────────────────────

func TestParcelCreateThenGet(t *testing.T) {
	f := newFixture()

	id, err := f.svc.Parcels.Create(ctx, map[string]any{"receiver": "Bob", "cost": 150.0}, "a@x.com")
	require.NoError(t, err)

	p, err := f.svc.Parcels.Get(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", p.CreatedBy)
	assert.Equal(t, models.Unpaid, p.PaymentStatus)
	assert.Equal(t, "Bob", p.Fields["receiver"])
	assert.Equal(t, 150.0, p.Fields["cost"])
}

func TestParcelCreateRejectsEmpty(t *testing.T) {
	_, err := newFixture().svc.Parcels.Create(ctx, map[string]any{}, "a@x.com")
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestParcelListByOwnerNewestFirst(t *testing.T) {
	f := newFixture()
	for _, d := range []string{"2024-01-01", "2024-03-01", "2024-02-01"} {
		_, err := f.svc.Parcels.Create(ctx, map[string]any{"creation_date": d}, "a@x.com")
		require.NoError(t, err)
	}
	_, err := f.svc.Parcels.Create(ctx, map[string]any{"creation_date": "2024-04-01"}, "b@x.com")
	require.NoError(t, err)

	parcels, err := f.svc.Parcels.List(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, parcels, 3)
	for _, p := range parcels {
		assert.Equal(t, "a@x.com", p.CreatedBy)
	}
	assert.Equal(t, time.March, parcels[0].CreationDate.Month())
	assert.Equal(t, time.January, parcels[2].CreationDate.Month())
}

func TestParcelOwnerMatchesIgnoringCase(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Parcels.Create(ctx, map[string]any{"created_by": "A@X.com", "receiver": "Bob"}, "ignored@x.com")
	require.NoError(t, err)

	for _, owner := range []string{"a@x.com", "A@x.COM"} {
		parcels, err := f.svc.Parcels.List(ctx, owner)
		require.NoError(t, err)
		require.Len(t, parcels, 1, owner)
		assert.Equal(t, "a@x.com", parcels[0].CreatedBy)
	}
}

func TestParcelGetMissingAndMalformed(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Parcels.Get(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = f.svc.Parcels.Get(ctx, "xyz")
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestParcelDeleteMissingIsZero(t *testing.T) {
	n, err := newFixture().svc.Parcels.Delete(ctx, primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParcelStoreFailureIsInternal(t *testing.T) {
	f := newFixture()
	f.stores.Parcels.FailOn("list", errors.New("socket closed"))

	_, err := f.svc.Parcels.List(ctx, "")
	require.Error(t, err)
	var se *services.Error
	require.ErrorAs(t, err, &se)
	assert.Nil(t, se.Kind)
}

// ─── Payments ─────────────────────────────────────────────────────────────────

func paymentFor(parcelID string) services.RecordPaymentInput {
	return services.RecordPaymentInput{
		ParcelID:      parcelID,
		Amount:        150,
		TransactionID: "pi_1",
		Email:         "A@x.com",
		Title:         "Documents",
		PaymentMethod: "card",
	}
}

func TestCreateIntent(t *testing.T) {
	f := newFixture()

	secret, err := f.svc.Payments.CreateIntent(ctx, 1250)
	require.NoError(t, err)
	assert.Equal(t, "pi_secret", secret)
	assert.Equal(t, []int64{1250}, f.gw.calls)

	_, err = f.svc.Payments.CreateIntent(ctx, 0)
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	assert.Len(t, f.gw.calls, 1, "gateway not called for invalid amounts")
}

func TestCreateIntentGatewayUnavailable(t *testing.T) {
	f := newFixture()
	f.gw.err = gateway.ErrUnavailable

	_, err := f.svc.Payments.CreateIntent(ctx, 100)
	assert.ErrorIs(t, err, services.ErrUnavailable)
}

func TestRecordPaymentMarksParcelPaid(t *testing.T) {
	f := newFixture()
	id, err := f.svc.Parcels.Create(ctx, map[string]any{"receiver": "Bob"}, "a@x.com")
	require.NoError(t, err)

	res, err := f.svc.Payments.Record(ctx, paymentFor(id.Hex()))
	require.NoError(t, err)
	assert.False(t, res.InsertedID.IsZero())
	assert.Equal(t, int64(1), res.Updated)
	assert.Empty(t, res.Warning)

	p, err := f.svc.Parcels.Get(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.Paid, p.PaymentStatus)

	cascades, err := f.svc.Cascades.List(ctx, models.CascadeApplied, 0)
	require.NoError(t, err)
	require.Len(t, cascades, 1)
	assert.Equal(t, models.CascadeParcelPaid, cascades[0].Kind)
	assert.Equal(t, id.Hex(), cascades[0].Target)
}

func TestRecordPaymentUnknownParcelStillStored(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Payments.Record(ctx, paymentFor(primitive.NewObjectID().Hex()))
	require.NoError(t, err)
	assert.Zero(t, res.Updated)
	assert.NotEmpty(t, res.Warning)

	payments, err := f.svc.Payments.List(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	unmatched, err := f.svc.Cascades.List(ctx, models.CascadeUnmatched, 0)
	require.NoError(t, err)
	assert.Len(t, unmatched, 1)
}

func TestRecordPaymentParcelUpdateFailureIsRecorded(t *testing.T) {
	f := newFixture()
	id, err := f.svc.Parcels.Create(ctx, map[string]any{"receiver": "Bob"}, "a@x.com")
	require.NoError(t, err)
	f.stores.Parcels.FailOn("set_payment_status", errors.New("primary stepped down"))

	res, err := f.svc.Payments.Record(ctx, paymentFor(id.Hex()))
	require.NoError(t, err, "payment is stored even though the parcel update failed")
	assert.Zero(t, res.Updated)
	assert.NotEmpty(t, res.Warning)

	p, err := f.svc.Parcels.Get(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.Unpaid, p.PaymentStatus)

	failed, err := f.svc.Cascades.List(ctx, models.CascadeFailed, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Detail, "primary stepped down")
}

func TestRecordPaymentInsertFailureTouchesNothing(t *testing.T) {
	f := newFixture()
	id, err := f.svc.Parcels.Create(ctx, map[string]any{"receiver": "Bob"}, "a@x.com")
	require.NoError(t, err)
	f.stores.Payments.FailOn("insert", errors.New("disk full"))

	_, err = f.svc.Payments.Record(ctx, paymentFor(id.Hex()))
	require.Error(t, err)

	p, err := f.svc.Parcels.Get(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.Unpaid, p.PaymentStatus)
}

func TestRecordPaymentCascadeLogDownDoesNotBlock(t *testing.T) {
	f := newFixture()
	id, err := f.svc.Parcels.Create(ctx, map[string]any{"receiver": "Bob"}, "a@x.com")
	require.NoError(t, err)
	f.stores.Cascades.FailOn("insert", errors.New("cascades unavailable"))

	res, err := f.svc.Payments.Record(ctx, paymentFor(id.Hex()))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Updated)
}

func TestRecordPaymentTimeDefaultsAndParses(t *testing.T) {
	f := newFixture()
	in := paymentFor(primitive.NewObjectID().Hex())
	in.PaymentTime = "2024-05-01T10:00:00Z"
	_, err := f.svc.Payments.Record(ctx, in)
	require.NoError(t, err)

	_, err = f.svc.Payments.Record(ctx, paymentFor(primitive.NewObjectID().Hex()))
	require.NoError(t, err)

	payments, err := f.svc.Payments.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.True(t, payments[0].PaymentTime.After(payments[1].PaymentTime), "latest first")
	assert.Equal(t, 2024, payments[1].PaymentTime.Year())

	in.PaymentTime = "whenever"
	_, err = f.svc.Payments.Record(ctx, in)
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

// ─── Tracking ─────────────────────────────────────────────────────────────────

func TestTrackingAppendPublishesAndOrders(t *testing.T) {
	f := newFixture()

	for _, status := range []string{"picked_up", "in_transit"} {
		_, err := f.svc.Tracking.Append(ctx, services.TrackingInput{TrackingID: "TRK-1", Status: status})
		require.NoError(t, err)
	}

	events, err := f.svc.Tracking.History(ctx, "TRK-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "picked_up", events[0].Status)
	assert.Len(t, f.live.msgs["TRK-1"], 2)
	assert.Contains(t, string(f.live.msgs["TRK-1"][1]), `"in_transit"`)
}

func TestTrackingRequiresIDAndStatus(t *testing.T) {
	_, err := newFixture().svc.Tracking.Append(ctx, services.TrackingInput{TrackingID: "TRK-1"})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

// ─── Users ────────────────────────────────────────────────────────────────────

func TestLoginCreatesThenTouches(t *testing.T) {
	f := newFixture()

	first, err := f.svc.Users.Login(ctx, services.LoginInput{Email: "a@x.com", Name: "Ann"})
	require.NoError(t, err)
	assert.True(t, first.Created)

	before, err := f.stores.Users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	second, err := f.svc.Users.Login(ctx, services.LoginInput{Email: "A@x.com"})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)

	after, err := f.stores.Users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.True(t, after.LastLogIn.After(before.LastLogIn))
	assert.Equal(t, models.RoleUser, after.Role)
}

func TestSearchUsers(t *testing.T) {
	f := newFixture()
	for i := 0; i < 12; i++ {
		_, err := f.svc.Users.Login(ctx, services.LoginInput{Email: string(rune('a'+i)) + "@team.com"})
		require.NoError(t, err)
	}

	found, err := f.svc.Users.Search(ctx, "TEAM")
	require.NoError(t, err)
	assert.Len(t, found, 10)

	_, err = f.svc.Users.Search(ctx, "nobody")
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = f.svc.Users.Search(ctx, " ")
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestSetRolePromoteThenRestore(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Users.Login(ctx, services.LoginInput{Email: "r@x.com"})
	require.NoError(t, err)
	_, err = f.stores.Users.SetRole(ctx, "r@x.com", models.RoleUser, models.RoleRider, "")
	require.NoError(t, err)

	role, err := f.svc.Users.SetRole(ctx, "r@x.com", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	u, err := f.stores.Users.FindByEmail(ctx, "r@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRider, u.PreviousRole)

	role, err = f.svc.Users.SetRole(ctx, "r@x.com", "user")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRider, role, "demotion restores the stashed role")

	u, err = f.stores.Users.FindByEmail(ctx, "r@x.com")
	require.NoError(t, err)
	assert.Empty(t, u.PreviousRole)
}

func TestSetRoleDefaultsToUserAndNoChange(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Users.Login(ctx, services.LoginInput{Email: "a@x.com"})
	require.NoError(t, err)

	_, err = f.svc.Users.SetRole(ctx, "a@x.com", "rider")
	assert.ErrorIs(t, err, services.ErrNoChange, "non-admin request restores user, which is already stored")

	_, err = f.svc.Users.SetRole(ctx, "a@x.com", "owner")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = f.svc.Users.SetRole(ctx, "ghost@x.com", "admin")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

// ─── Riders ───────────────────────────────────────────────────────────────────

func TestApplyTwiceConflicts(t *testing.T) {
	f := newFixture()
	doc := map[string]any{"email": "r@x.com", "name": "Rafi"}

	_, err := f.svc.Riders.Apply(ctx, doc)
	require.NoError(t, err)
	_, err = f.svc.Riders.Apply(ctx, doc)
	assert.ErrorIs(t, err, services.ErrConflict)

	pending, err := f.svc.Riders.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestActivationCascadesUserRole(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Users.Login(ctx, services.LoginInput{Email: "r@x.com"})
	require.NoError(t, err)
	id, err := f.svc.Riders.Apply(ctx, map[string]any{"email": "r@x.com", "name": "Rafi"})
	require.NoError(t, err)

	status, err := f.svc.Riders.UpdateStatus(ctx, id.Hex(), services.RiderStatusInput{Status: "active", Email: "r@x.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RiderActive, status)

	role, err := f.svc.Users.Role(ctx, "r@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRider, role)

	active, err := f.svc.Riders.Active(ctx, "raf")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	applied, err := f.svc.Cascades.List(ctx, models.CascadeApplied, 0)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, models.CascadeRiderRole, applied[0].Kind)
}

func TestActivationWithoutEmailUsesRiderEmail(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Users.Login(ctx, services.LoginInput{Email: "r@x.com"})
	require.NoError(t, err)
	id, err := f.svc.Riders.Apply(ctx, map[string]any{"email": "r@x.com"})
	require.NoError(t, err)

	_, err = f.svc.Riders.UpdateStatus(ctx, id.Hex(), services.RiderStatusInput{Status: "active"})
	require.NoError(t, err)

	role, err := f.svc.Users.Role(ctx, "r@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRider, role)
}

func TestActivationKeepsAdminAndStashesRider(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Users.Login(ctx, services.LoginInput{Email: "boss@x.com"})
	require.NoError(t, err)
	_, err = f.svc.Users.SetRole(ctx, "boss@x.com", "admin")
	require.NoError(t, err)
	id, err := f.svc.Riders.Apply(ctx, map[string]any{"email": "boss@x.com"})
	require.NoError(t, err)

	_, err = f.svc.Riders.UpdateStatus(ctx, id.Hex(), services.RiderStatusInput{Status: "active"})
	require.NoError(t, err)

	role, err := f.svc.Users.SetRole(ctx, "boss@x.com", "user")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRider, role)
}

func TestActivationCascadeFailureIsNotSurfaced(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Users.Login(ctx, services.LoginInput{Email: "r@x.com"})
	require.NoError(t, err)
	id, err := f.svc.Riders.Apply(ctx, map[string]any{"email": "r@x.com"})
	require.NoError(t, err)
	f.stores.Users.FailOn("set_role", errors.New("write conflict"))

	status, err := f.svc.Riders.UpdateStatus(ctx, id.Hex(), services.RiderStatusInput{Status: "active", Email: "r@x.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RiderActive, status)

	role, err := f.svc.Users.Role(ctx, "r@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role, "rider active but user role unchanged")

	failed, err := f.svc.Cascades.List(ctx, models.CascadeFailed, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Detail, "write conflict")
}

func TestActivationWithoutUserIsUnmatched(t *testing.T) {
	f := newFixture()
	id, err := f.svc.Riders.Apply(ctx, map[string]any{"email": "r@x.com"})
	require.NoError(t, err)

	_, err = f.svc.Riders.UpdateStatus(ctx, id.Hex(), services.RiderStatusInput{Status: "active"})
	require.NoError(t, err)

	unmatched, err := f.svc.Cascades.List(ctx, models.CascadeUnmatched, 0)
	require.NoError(t, err)
	assert.Len(t, unmatched, 1)
}

func TestUpdateStatusErrors(t *testing.T) {
	f := newFixture()
	id, err := f.svc.Riders.Apply(ctx, map[string]any{"email": "r@x.com"})
	require.NoError(t, err)

	_, err = f.svc.Riders.UpdateStatus(ctx, id.Hex(), services.RiderStatusInput{Status: "pending"})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = f.svc.Riders.UpdateStatus(ctx, primitive.NewObjectID().Hex(), services.RiderStatusInput{Status: "accepted"})
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = f.svc.Riders.UpdateStatus(ctx, id.Hex(), services.RiderStatusInput{Status: "accepted"})
	require.NoError(t, err)
	_, err = f.svc.Riders.UpdateStatus(ctx, id.Hex(), services.RiderStatusInput{Status: "accepted"})
	assert.ErrorIs(t, err, services.ErrNoChange)
}
