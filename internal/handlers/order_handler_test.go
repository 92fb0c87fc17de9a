package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hyunwoogil/restaurant-order-service/internal/services"
	"github.com/hyunwoogil/restaurant-order-service/internal/views"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	middleware "github.com/hyunwoogil/restaurant-order-service/pkg/middlewares"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testLogger = zap.NewNop()

// stubOrderService lets each test inject just the behavior it needs.
type stubOrderService struct {
	createFn func(ctx context.Context, traceID string, req views.CreateOrderRequest) (views.OrderSummary, error)
	listFn   func(ctx context.Context, traceID string, customerID *string, status *string, limit int) ([]views.OrderSummary, error)
	acceptFn func(ctx context.Context, traceID string, orderID string, req views.AcceptOrderRequest) (views.TransitionResponse, error)
	cancelFn func(ctx context.Context, traceID string, orderID string, customerID *string) (views.TransitionResponse, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, traceID string, req views.CreateOrderRequest) (views.OrderSummary, error) {
	return s.createFn(ctx, traceID, req)
}

func (s *stubOrderService) GetOrder(context.Context, string, string) (views.OrderDetailResponse, error) {
	return views.OrderDetailResponse{}, nil
}

func (s *stubOrderService) ListOrders(ctx context.Context, traceID string, customerID *string, status *string, limit int) ([]views.OrderSummary, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, traceID, customerID, status, limit)
}

func (s *stubOrderService) Accept(ctx context.Context, traceID string, orderID string, req views.AcceptOrderRequest) (views.TransitionResponse, error) {
	return s.acceptFn(ctx, traceID, orderID, req)
}

func (s *stubOrderService) Complete(context.Context, string, string, views.CompleteOrderRequest) (views.TransitionResponse, error) {
	return views.TransitionResponse{}, nil
}

func (s *stubOrderService) Cancel(ctx context.Context, traceID string, orderID string, customerID *string) (views.TransitionResponse, error) {
	return s.cancelFn(ctx, traceID, orderID, customerID)
}

func newTestRouter(svc services.OrderService, orderRate int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.TraceID())

	limiter := pkg.NewDistributedLimiter(nil, "global:order_rate", orderRate, orderRate, time.Minute, testLogger)
	NewOrderHandler(testLogger, svc, limiter).RegisterRoutes(api)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateOrder_Returns201WithSummary(t *testing.T) {
	svc := &stubOrderService{
		createFn: func(_ context.Context, traceID string, req views.CreateOrderRequest) (views.OrderSummary, error) {
			assert.NotEmpty(t, traceID)
			assert.Len(t, req.Items, 1)
			return views.OrderSummary{
				OrderID:     "7e2e8b3e-1111-2222-3333-444455556666",
				OrderNo:     7,
				Status:      pkg.OrderStatusPlaced,
				TotalAmount: 24000,
			}, nil
		},
	}
	r := newTestRouter(svc, 0)

	w := doJSON(t, r, http.MethodPost, "/api/v1/orders",
		`{"items":[{"menuItemId":"0e6f1f35-9c4f-4a91-9d57-54c4d9a7c111","qty":2}]}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get(pkg.HeaderTraceId))

	var out views.OrderSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, int64(7), out.OrderNo)
	assert.Equal(t, pkg.OrderStatusPlaced, out.Status)
	assert.Equal(t, int64(24000), out.TotalAmount)
}

func TestCreateOrder_BadBodyReturns400(t *testing.T) {
	svc := &stubOrderService{
		createFn: func(context.Context, string, views.CreateOrderRequest) (views.OrderSummary, error) {
			t.Fatal("service must not be called on a bind failure")
			return views.OrderSummary{}, nil
		},
	}
	r := newTestRouter(svc, 0)

	// items missing entirely
	w := doJSON(t, r, http.MethodPost, "/api/v1/orders", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var out pkg.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, pkg.ErrInvalidInputCode.Code, out.Code)
}

func TestCreateOrder_RateLimited(t *testing.T) {
	svc := &stubOrderService{
		createFn: func(context.Context, string, views.CreateOrderRequest) (views.OrderSummary, error) {
			return views.OrderSummary{}, nil
		},
	}
	r := newTestRouter(svc, 1) // burst of one

	body := `{"items":[{"menuItemId":"0e6f1f35-9c4f-4a91-9d57-54c4d9a7c111","qty":1}]}`
	first := doJSON(t, r, http.MethodPost, "/api/v1/orders", body)
	second := doJSON(t, r, http.MethodPost, "/api/v1/orders", body)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestListOrders_FiltersByCustomer(t *testing.T) {
	svc := &stubOrderService{
		listFn: func(_ context.Context, _ string, customerID *string, status *string, limit int) ([]views.OrderSummary, error) {
			require.NotNil(t, customerID)
			assert.Equal(t, "cust-1", *customerID)
			assert.Nil(t, status) // the customer listing never filters by status
			assert.Equal(t, 5, limit)
			return []views.OrderSummary{
				{OrderID: "7e2e8b3e-1111-2222-3333-444455556666", OrderNo: 7, Status: pkg.OrderStatusPlaced, TotalAmount: 24000},
			}, nil
		},
	}
	r := newTestRouter(svc, 0)

	w := doJSON(t, r, http.MethodGet, "/api/v1/orders?customerId=cust-1&limit=5", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Orders []views.OrderSummary `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Orders, 1)
	assert.Equal(t, int64(7), out.Orders[0].OrderNo)
}

func TestListOrders_NoFilterUsesDefaultLimit(t *testing.T) {
	var gotLimit int
	svc := &stubOrderService{
		listFn: func(_ context.Context, _ string, customerID *string, _ *string, limit int) ([]views.OrderSummary, error) {
			assert.Nil(t, customerID)
			gotLimit = limit
			return nil, nil
		},
	}
	r := newTestRouter(svc, 0)

	w := doJSON(t, r, http.MethodGet, "/api/v1/orders", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultListLimit, gotLimit)
}

func TestCancelOrder_PassesCustomerIDAndMapsConflict(t *testing.T) {
	var gotCustomerID *string
	svc := &stubOrderService{
		cancelFn: func(_ context.Context, _ string, _ string, customerID *string) (views.TransitionResponse, error) {
			gotCustomerID = customerID
			return views.TransitionResponse{}, pkg.NewAppError(pkg.ErrStatusConflictCode, "cannot cancel order in status=ACCEPTED", nil)
		},
	}
	r := newTestRouter(svc, 0)

	w := doJSON(t, r, http.MethodPost, "/api/v1/orders/abc/cancel?customerId=cust-1", "")

	// Illegal transitions surface as 400 with the current status in the message.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, gotCustomerID)
	assert.Equal(t, "cust-1", *gotCustomerID)

	var out pkg.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, pkg.ErrStatusConflictCode.Code, out.Code)
	assert.Contains(t, out.Message, "ACCEPTED")
}
