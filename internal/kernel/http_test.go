package kernel_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories/memory"
	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/internal/kernel"
	"github.com/shashiranjanraj/parcelhub/pkg/auth"
	"github.com/shashiranjanraj/parcelhub/pkg/testkit"
	"github.com/shashiranjanraj/parcelhub/pkg/ws"
)

const (
	seededParcel = "64b7f0c2a1b2c3d4e5f60718"
	seededRider  = "64b7f0c2a1b2c3d4e5f60719"
)

// tokenVerifier accepts "test-token" as a@x.com, reports "keys-down" as an
// unreachable identity provider and rejects everything else.
type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, raw string) (*auth.Claims, error) {
	switch raw {
	case "test-token":
		return &auth.Claims{UID: "uid-a", Email: "a@x.com"}, nil
	case "keys-down":
		return nil, fmt.Errorf("%w: dial tcp: connection refused", auth.ErrKeysUnavailable)
	}
	return nil, auth.ErrInvalidToken
}

type stubGateway struct{}

func (stubGateway) CreateIntent(context.Context, int64, string) (string, error) {
	return "pi_test_secret", nil
}

func mustID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return id
}

// seed loads a parcel, a pending rider and two users with fixed ids so
// scenario files can address them.
func seed(t *testing.T, stores *memory.Stores) {
	t.Helper()
	ctx := context.Background()

	_, err := stores.Parcels.Insert(ctx, &models.Parcel{
		ID:            mustID(t, seededParcel),
		CreatedBy:     "a@x.com",
		CreationDate:  time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		PaymentStatus: models.Unpaid,
		Fields:        map[string]any{"receiver": "Bob", "address": "12 Lake Road"},
	})
	require.NoError(t, err)

	_, err = stores.Riders.Insert(ctx, &models.Rider{
		ID:        mustID(t, seededRider),
		Email:     "r@x.com",
		Name:      "Rafi",
		Status:    models.RiderPending,
		AppliedAt: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
		Fields:    map[string]any{"region": "Dhaka"},
	})
	require.NoError(t, err)

	joined := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	for _, u := range []models.User{
		{Email: "r@x.com", Role: models.RoleUser, CreatedAt: joined, LastLogIn: joined},
		{Email: "boss@x.com", Role: models.RoleAdmin, PreviousRole: models.RoleRider, CreatedAt: joined, LastLogIn: joined},
	} {
		u := u
		_, err = stores.Users.Insert(ctx, &u)
		require.NoError(t, err)
	}
}

type testApp struct {
	stores  *memory.Stores
	svc     *services.Services
	hub     *ws.Hub
	handler http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	stores := memory.New()
	seed(t, stores)

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	svc := services.New(stores.Set(), services.Config{
		Gateway:  stubGateway{},
		Currency: "usd",
		Live:     hub,
	})
	k := kernel.NewHTTPKernel(kernel.Deps{
		Services: svc,
		Hub:      hub,
		Verifier: tokenVerifier{},
	})
	return &testApp{stores: stores, svc: svc, hub: hub, handler: k.Handler()}
}

func (a *testApp) do(t *testing.T, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestAPIScenarios(t *testing.T) {
	app := newTestApp(t)
	testkit.RunDir(t, app.handler, "testdata/api")
}

func TestMyParcelsDefaultsToCaller(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	_, err := app.stores.Parcels.Insert(ctx, &models.Parcel{
		CreatedBy: "someone@else.com", CreationDate: models.Now(), PaymentStatus: models.Unpaid,
	})
	require.NoError(t, err)

	rec := app.do(t, http.MethodGet, "/myparcels", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, seededParcel, data[0].(map[string]any)["_id"])

	rec = app.do(t, http.MethodGet, "/myparcels?email=someone@else.com", "")
	data = decode(t, rec)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "someone@else.com", data[0].(map[string]any)["created_by"])
}

func TestCreatedParcelIsOwnedByCaller(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/parcels", `{"receiver":"Dina","created_by":"","payment_status":"paid"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["data"].(map[string]any)["insertedId"].(string)

	rec = app.do(t, http.MethodGet, "/parcels/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	parcel := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "a@x.com", parcel["created_by"])
	assert.Equal(t, "unpaid", parcel["payment_status"])
	assert.Equal(t, "Dina", parcel["receiver"])

	rec = app.do(t, http.MethodDelete, "/parcels/"+id, "")
	assert.Equal(t, float64(1), decode(t, rec)["data"].(map[string]any)["deletedCount"])
}

func TestPaymentWritesCascadeRecord(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/payments", `{
		"parcelId":"`+seededParcel+`","amount":40,"transactionId":"pi_9",
		"email":"Payer@X.com","title":"Docs","payment_method":"card",
		"payment_time":"2024-02-01T10:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	records, err := app.svc.Cascades.List(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.CascadeParcelPaid, records[0].Kind)
	assert.Equal(t, models.CascadeApplied, records[0].State)
	assert.Equal(t, seededParcel, records[0].Target)

	rec = app.do(t, http.MethodGet, "/payments?email=payer@x.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	payments := decode(t, rec)["data"].([]any)
	require.Len(t, payments, 1)
	assert.Equal(t, "payer@x.com", payments[0].(map[string]any)["email"])
}

func TestRiderActivationKeepsAdminRole(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	_, err := app.stores.Users.Insert(ctx, &models.User{Email: "chief@x.com", Role: models.RoleAdmin, CreatedAt: models.Now()})
	require.NoError(t, err)
	rec := app.do(t, http.MethodPost, "/riders", `{"email":"chief@x.com","name":"Chief"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["data"].(map[string]any)["insertedId"].(string)

	rec = app.do(t, http.MethodPatch, "/riders/update-status/"+id, `{"status":"active"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/users/chief@x.com/role", "")
	assert.Equal(t, "admin", decode(t, rec)["data"].(map[string]any)["role"])

	// demotion restores the rider role stashed by the activation
	rec = app.do(t, http.MethodPatch, "/users/role/chief@x.com", `{"role":"user"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "rider", decode(t, rec)["data"].(map[string]any)["role"])
}

func TestRiderActivationForUnknownUser(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/riders", `{"email":"walkin@x.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["data"].(map[string]any)["insertedId"].(string)

	rec = app.do(t, http.MethodPatch, "/riders/update-status/"+id, `{"status":"active"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	records, err := app.svc.Cascades.List(context.Background(), models.CascadeUnmatched, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.CascadeRiderRole, records[0].Kind)
	assert.Equal(t, "walkin@x.com", records[0].Target)
}

func TestRolePromoteThenDemote(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPatch, "/users/role/r@x.com", `{"role":"admin"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Role updated to admin", decode(t, rec)["message"])

	rec = app.do(t, http.MethodPatch, "/users/role/r@x.com", `{"role":"admin"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, "repeating a promotion changes nothing")

	rec = app.do(t, http.MethodPatch, "/users/role/r@x.com", `{"role":"user"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user", decode(t, rec)["data"].(map[string]any)["role"])
}

func TestPaymentIntentGatewayDisabled(t *testing.T) {
	stores := memory.New()
	svc := services.New(stores.Set(), services.Config{Currency: "usd"})
	k := kernel.NewHTTPKernel(kernel.Deps{Services: svc, Hub: ws.NewHub(), Verifier: tokenVerifier{}})

	req := httptest.NewRequest(http.MethodPost, "/create-payment-intent", strings.NewReader(`{"amount":500}`))
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
}

func TestLiveTrackingStream(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/track/TRK-9/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return app.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/track", "application/json",
		strings.NewReader(`{"tracking_id":"TRK-9","status":"in_transit","message":"Left hub"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event map[string]any
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, "TRK-9", event["tracking_id"])
	assert.Equal(t, "in_transit", event["status"])
}

func TestRoutesAreNamed(t *testing.T) {
	k := kernel.NewHTTPKernel(kernel.Deps{
		Services: services.New(memory.New().Set(), services.Config{}),
		Hub:      ws.NewHub(),
		Verifier: tokenVerifier{},
	})
	names := map[string]bool{}
	for _, r := range k.Routes() {
		names[r.Name] = true
	}
	for _, want := range []string{"parcels.store", "payments.intent", "riders.status", "users.role.update", "track.live", "metrics"} {
		assert.True(t, names[want], "missing route %s", want)
	}
}

func TestEscapedEmailInPath(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/users/boss%40x.com/role", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "admin", decode(t, rec)["data"].(map[string]any)["role"])

	rec = app.do(t, http.MethodPatch, "/users/role/boss%40x.com", `{"role":"user"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "rider", decode(t, rec)["data"].(map[string]any)["role"])
}
