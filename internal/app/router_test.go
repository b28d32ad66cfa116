package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/tair/warehouse-erp/internal/catalog/domain"
	inventorydomain "github.com/tair/warehouse-erp/internal/inventory/domain"
	orderdomain "github.com/tair/warehouse-erp/internal/order/domain"
	orderrepo "github.com/tair/warehouse-erp/internal/order/repository"
	"github.com/tair/warehouse-erp/internal/testutil"
	warehousedomain "github.com/tair/warehouse-erp/internal/warehouse/domain"
	"github.com/tair/warehouse-erp/kafka"
	"github.com/tair/warehouse-erp/pkg/auth"
	"github.com/tair/warehouse-erp/pkg/config"
	"github.com/tair/warehouse-erp/pkg/httpx"
)

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *httpx.ErrorBody `json:"error"`
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func newTestRouter(t *testing.T, validator *auth.Validator) http.Handler {
	t.Helper()
	db := testutil.NewDB(t,
		&catalogdomain.Product{}, &catalogdomain.SKU{},
		&warehousedomain.Warehouse{},
		&inventorydomain.StockLevel{}, &inventorydomain.StockMovement{},
		&orderdomain.Order{}, &orderdomain.OrderLine{}, &orderrepo.OrderSequence{},
	)

	cfg := config.Config{}
	cfg.Orders.Sequence = "database"

	reg := prometheus.NewRegistry()
	handlers, err := InitializeHandlers(cfg, db, nil, kafka.NopPublisher{}, reg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)

	return NewRouter(handlers, RouterConfig{
		ServiceName:    "warehouse-test",
		RequestTimeout: 5 * time.Second,
		Auth:           validator,
		Metrics:        httpx.NewMetrics(reg),
		Gatherer:       reg,
		DB:             sqlDB,
	})
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestOrderFlowOverHTTP(t *testing.T) {
	h := newTestRouter(t, nil)
	actor := []string{auth.ActorHeader, "7"}

	rec, env := do(t, h, "POST", "/api/v1/warehouses", map[string]interface{}{
		"code": "main",
		"name": "Main warehouse",
	}, actor...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var warehouse warehousedomain.Warehouse
	require.NoError(t, json.Unmarshal(env.Data, &warehouse))
	assert.Equal(t, "MAIN", warehouse.Code)

	rec, env = do(t, h, "POST", "/api/v1/products", map[string]interface{}{
		"name": "Wireless Headphones",
		"skus": []map[string]interface{}{
			{"sku_code": "wbh-001", "cost": "80", "price_list": map[string]string{"retail": "100"}},
		},
	}, actor...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product catalogdomain.Product
	require.NoError(t, json.Unmarshal(env.Data, &product))
	require.Len(t, product.SKUs, 1)

	rec, _ = do(t, h, "POST", "/api/v1/movements", map[string]interface{}{
		"product_id":   product.ID,
		"sku_code":     "WBH-001",
		"quantity":     "10",
		"type":         "IN",
		"warehouse_id": warehouse.ID,
		"ref_type":     "PURCHASE",
	}, actor...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = do(t, h, "POST", "/api/v1/orders", map[string]interface{}{
		"customer":     map[string]string{"name": "Ana"},
		"channel":      "POS",
		"warehouse_id": warehouse.ID,
		"lines": []map[string]interface{}{
			{"product_id": product.ID, "sku_code": "wbh-001", "quantity": "3"},
		},
	}, actor...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order orderdomain.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, orderdomain.StatusDraft, order.Status)
	assert.Regexp(t, `^ORD-\d{8}-0001$`, order.OrderNumber)

	rec, env = do(t, h, "POST", "/api/v1/orders/"+itoa(order.ID)+"/confirm", nil, actor...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, orderdomain.StatusConfirmed, order.Status)

	rec, env = do(t, h, "GET", "/api/v1/stock-levels/WBH-001/"+itoa(warehouse.ID), nil, actor...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var level inventorydomain.StockLevel
	require.NoError(t, json.Unmarshal(env.Data, &level))
	assert.Equal(t, "7", level.Quantity.String())

	rec, env = do(t, h, "POST", "/api/v1/orders/"+itoa(order.ID)+"/confirm", nil, actor...)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
}

func TestErrorsUseTheEnvelope(t *testing.T) {
	h := newTestRouter(t, nil)

	rec, env := do(t, h, "GET", "/api/v1/orders/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", string(env.Error.Kind))
	assert.False(t, env.Success)

	rec, env = do(t, h, "POST", "/api/v1/orders", map[string]interface{}{
		"customer":     map[string]string{"name": "Ana"},
		"channel":      "POS",
		"warehouse_id": 1,
	}, auth.ActorHeader, "7")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
}

func TestAuthRequiredWhenSecretSet(t *testing.T) {
	validator := auth.NewValidator("router-test-secret")
	h := newTestRouter(t, validator)

	rec, env := do(t, h, "GET", "/api/v1/warehouses", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", string(env.Error.Kind))

	token, err := validator.Sign(7, "admin", time.Minute)
	require.NoError(t, err)
	rec, _ = do(t, h, "GET", "/api/v1/warehouses", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// health and metrics stay public
	rec, _ = do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, h, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthReportsDatabaseDown(t *testing.T) {
	rec := httptest.NewRecorder()
	healthCheck(fakePinger{err: errors.New("connection refused")})(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	healthCheck(fakePinger{})(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProvideLockerAndSequenceFallBackWithoutRedis(t *testing.T) {
	cfg := config.Config{}
	cfg.Orders.Sequence = "redis"

	_, isKeyed := ProvideLocker(cfg, nil).(interface{ Len() int })
	assert.True(t, isKeyed)

	db := testutil.NewDB(t, &orderdomain.Order{}, &orderrepo.OrderSequence{})
	alloc := ProvideSequenceAllocator(cfg, db, nil, ProvideOrderRepository(db))
	assert.IsType(t, &orderrepo.GormSequenceAllocator{}, alloc)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
