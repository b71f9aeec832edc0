package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbook/internal/app/commands"
	bookingapp "hotelbook/internal/app/handlers/booking"
	"hotelbook/internal/app/middleware"
	"hotelbook/internal/app/queries"
	domainaccount "hotelbook/internal/domain/account"
	domainbooking "hotelbook/internal/domain/booking"
	domainproperty "hotelbook/internal/domain/property"
	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/money"
	"hotelbook/internal/infra/config"
	"hotelbook/internal/infra/obs"
	"hotelbook/internal/infra/payments"
	"hotelbook/internal/infra/storage/memory"
	"hotelbook/internal/infra/validation"
)

var testSecret = []byte("test-secret")

type fakePhotos struct {
	keys []string
}

func (f *fakePhotos) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	f.keys = append(f.keys, key)
	return "https://objects.test/" + key, nil
}

type testServer struct {
	router   http.Handler
	verifier *payments.HMACVerifier
	photos   *fakePhotos
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	store.Properties.Put(&domainproperty.Property{ID: "hotel-1", ManagerID: "manager-1", Name: "Lake View", NightlyRate: money.Must(5000, "INR")})
	store.Accounts.Put(domainaccount.Account{Ref: domainaccount.Guest("guest-1"), Wallet: money.Must(50000, "INR")})
	store.Accounts.Put(domainaccount.Account{Ref: domainaccount.Manager("manager-1"), Wallet: money.Zero("INR"), PropertyIDs: []string{"hotel-1"}})
	store.Accounts.Put(domainaccount.Account{Ref: domainaccount.Platform("platform"), Wallet: money.Zero("INR")})

	verifier, err := payments.NewHMACVerifier("signing-secret")
	require.NoError(t, err)
	box := memory.NewOutbox()
	factory := store.Factory()
	cmdBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	bookingapp.Module{
		Env: bookingapp.Env{
			UoWFactory: factory,
			Outbox:     box,
			Policy:     domainbooking.DefaultRevenuePolicy(),
			Currency:   "INR",
			Now:        func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
		},
		Gateway:           payments.NewMockGateway(),
		Verifier:          verifier,
		PlatformAccountID: "platform",
	}.Register(cmdBus, queryBus)

	v := validation.New()
	cmds := middleware.ChainCommands(cmdBus,
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Validation(v),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
		middleware.Transaction(factory, middleware.CommandTxOptions),
		middleware.OutboxFlush(box, nil),
	)
	qs := middleware.ChainQueries(queryBus,
		middleware.QueryAuthorization(middleware.RoleAuthorizer{}),
		middleware.QueryValidation(v),
	)

	photos := &fakePhotos{}
	router := NewRouter(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Booking:        BookingHandler{Commands: cmds, Queries: qs},
		Me:             MeHandler{Queries: qs, Photos: photos},
		Manager:        ManagerHandler{Commands: cmds, Queries: qs},
		Admin:          AdminHandler{Queries: qs},
		AuthMiddleware: AuthMiddleware{Secret: testSecret}.Handle,
	})
	return &testServer{router: router, verifier: verifier, photos: photos}
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func bookingRequest() gin.H {
	return gin.H{
		"property_id":    "hotel-1",
		"check_in":       "2026-03-10",
		"check_out":      "2026-03-12",
		"guests":         2,
		"total_price":    10000,
		"payment_option": "full",
		"guest_details":  gin.H{"name": "Asha", "email": "asha@example.com", "phone": "9999999999"},
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.New(apperr.KindValidation, "bad dates"), http.StatusBadRequest},
		{payments.ErrSignatureMismatch, http.StatusBadRequest},
		{domainbooking.ErrBookingNotFound, http.StatusNotFound},
		{domainbooking.ErrInvalidState, http.StatusConflict},
		{apperr.Cancellation("approve", domainbooking.ErrInvalidState), http.StatusConflict},
		{domainaccount.ErrInsufficientFunds, http.StatusPaymentRequired},
		{apperr.Dependency("gateway", errors.New("timeout")), http.StatusServiceUnavailable},
		{middleware.ErrUnauthenticated, http.StatusUnauthorized},
		{middleware.ErrForbidden, http.StatusForbidden},
		{commands.ErrHandlerNotFound, http.StatusNotImplemented},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/livez", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", "", nil).Code)
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/me/bookings", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/me/bookings", "not-a-jwt", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/me/bookings", token(t, "manager-1", "manager"), nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/admin/transactions", token(t, "guest-1", "guest"), nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/admin/transactions", token(t, "admin-1", "admin"), nil).Code)
}

func TestRejectsTokenWithUnknownRole(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/me/bookings", token(t, "guest-1", "superuser"), nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAvailabilityIsPublic(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/properties/hotel-1/availability", "", gin.H{"check_in": "2026-03-10", "check_out": "2026-03-12"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[bookingapp.CheckAvailabilityResult](t, rec).IsAvailable)

	rec = s.do(t, http.MethodPost, "/api/v1/properties/hotel-1/availability", "", gin.H{"check_in": "2026-03-12", "check_out": "2026-03-10"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingPaymentFlow(t *testing.T) {
	s := newTestServer(t)
	guest := token(t, "guest-1", "guest")

	rec := s.do(t, http.MethodPost, "/api/v1/bookings", guest, bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[bookingapp.CreateBookingResult](t, rec)
	require.NotEmpty(t, created.OrderID)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings", guest, bookingRequest())
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/verify-payment", guest, gin.H{
		"order_id":   created.OrderID,
		"payment_id": "pay_1",
		"signature":  "forged",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/verify-payment", guest, gin.H{
		"order_id":   created.OrderID,
		"payment_id": "pay_1",
		"signature":  s.verifier.Sign(created.OrderID, "pay_1"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"Completed"`)

	rec = s.do(t, http.MethodGet, "/api/v1/me/bookings/"+created.Booking.ID, guest, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/me/bookings/"+created.Booking.ID, token(t, "guest-2", "guest"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/manager/reservations", token(t, "manager-1", "manager"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.Booking.ID)
}

func TestCancellationFlow(t *testing.T) {
	s := newTestServer(t)
	guest := token(t, "guest-1", "guest")
	manager := token(t, "manager-1", "manager")

	rec := s.do(t, http.MethodPost, "/api/v1/bookings", guest, bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[bookingapp.CreateBookingResult](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/wallet-payment", guest, gin.H{"amount": 10000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/cancel-request", guest, gin.H{"reason": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/cancel-request", guest, gin.H{"reason": "flight cancelled"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/admin/cancellations", token(t, "admin-1", "admin"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flight cancelled")

	rec = s.do(t, http.MethodPost, "/api/v1/manager/cancellations/"+created.Booking.ID+"/approve", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[bookingapp.ApproveCancellationResult](t, rec)
	assert.Equal(t, 100.0, approved.RefundPercentage)
	assert.Equal(t, int64(10000), approved.RefundAmount.Amount)

	rec = s.do(t, http.MethodPost, "/api/v1/manager/cancellations/"+created.Booking.ID+"/reject", manager, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/me/transactions", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":{"amount":50000`)
}

func TestWalletPaymentInsufficientFunds(t *testing.T) {
	s := newTestServer(t)
	guest := token(t, "guest-1", "guest")
	rec := s.do(t, http.MethodPost, "/api/v1/bookings", guest, bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[bookingapp.CreateBookingResult](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/wallet-payment", guest, gin.H{"amount": 90000})

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestUploadIDPhoto(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="photo"; filename="passport.JPG"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := form.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-jpeg"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/me/id-photos", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token(t, "guest-1", "guest"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, s.photos.keys, 1)
	assert.Regexp(t, `^id-photos/guest-1/[0-9a-f-]{36}\.jpg$`, s.photos.keys[0])
	assert.Contains(t, rec.Body.String(), "https://objects.test/id-photos/guest-1/")
}
