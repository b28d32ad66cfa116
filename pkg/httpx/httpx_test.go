package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/auth"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestErrorMapsKindsToStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperr.InvalidField("name", "is required"), http.StatusBadRequest},
		{apperr.New(apperr.KindInvalidQuantity, "zero"), http.StatusBadRequest},
		{apperr.New(apperr.KindEmptyOrder, "empty"), http.StatusBadRequest},
		{apperr.NotFound("order", 1), http.StatusNotFound},
		{apperr.Conflict(apperr.CodeDuplicateSkuCode, "dup"), http.StatusConflict},
		{apperr.InvalidTransition("DRAFT", "SHIPPED"), http.StatusConflict},
		{apperr.New(apperr.KindInsufficientStock, "short"), http.StatusUnprocessableEntity},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(apperr.KindOf(tt.err)), func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, httptest.NewRequest("GET", "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, apperr.KindOf(tt.err), resp.Error.Kind)
		})
	}
}

func TestErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest("GET", "/", nil), errors.New("pq: password authentication failed"))

	assert.NotContains(t, rec.Body.String(), "password")
	assert.Equal(t, "internal server error", decodeResponse(t, rec).Error.Message)
}

func TestErrorCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest("GET", "/", nil), apperr.Validation(map[string]string{"lines[0].quantity": "must be greater than 0"}))

	resp := decodeResponse(t, rec)
	assert.Equal(t, "must be greater than 0", resp.Error.Fields["lines[0].quantity"])
}

func TestDecode(t *testing.T) {
	var v struct {
		Quantity int `json:"quantity"`
	}

	err := Decode(httptest.NewRequest("POST", "/", strings.NewReader(`{"quantity":"x"}`)), &v)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	err = Decode(httptest.NewRequest("POST", "/", strings.NewReader(``)), &v)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, Decode(httptest.NewRequest("POST", "/", strings.NewReader(`{"quantity":3}`)), &v))
	assert.Equal(t, 3, v.Quantity)
}

func TestQuery(t *testing.T) {
	q := NewQuery(httptest.NewRequest("GET", "/?page=2&limit=5&warehouse_id=3&active=true&from=2024-03-09", nil))

	assert.Equal(t, 2, q.Page().Page)
	assert.EqualValues(t, 3, q.Uint("warehouse_id"))
	assert.True(t, *q.Bool("active"))
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), *q.Time("from"))
	assert.Nil(t, q.UintPtr("customer_id"))
	require.NoError(t, q.Err())

	bad := NewQuery(httptest.NewRequest("GET", "/?page=x&from=yesterday", nil))
	bad.Page()
	bad.Time("from")
	var appErr *apperr.Error
	require.ErrorAs(t, bad.Err(), &appErr)
	assert.Contains(t, appErr.Fields, "page")
	assert.Contains(t, appErr.Fields, "from")
}

func TestMiddlewares(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	router := mux.NewRouter()
	RegisterMiddlewares(router, DefaultMiddlewareConfig("test", metrics))
	router.HandleFunc("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		OK(w, map[string]string{"id": mux.Vars(r)["id"]})
	}).Methods("GET")
	router.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}).Methods("GET")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/orders/7", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/orders/{id}", "200")))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/panic", nil)
	req.Header.Set(RequestIDHeader, "fixed")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "fixed", rec.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware(t *testing.T) {
	v := auth.NewValidator("secret")
	var seen uint
	h := AuthMiddleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.ActorFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := v.Sign(11, "", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.EqualValues(t, 11, seen)
}
