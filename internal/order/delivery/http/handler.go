package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/internal/order/usecase/command"
	"github.com/tair/warehouse-erp/internal/order/usecase/query"
	"github.com/tair/warehouse-erp/pkg/auth"
	"github.com/tair/warehouse-erp/pkg/httpx"
)

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	createHandler  *command.CreateOrderHandler
	linesHandler   *command.UpdateOrderLinesHandler
	confirmHandler *command.ConfirmOrderHandler
	statusHandler  *command.UpdateOrderStatusHandler
	paymentHandler *command.UpdatePaymentStatusHandler

	getHandler  *query.GetOrderHandler
	listHandler *query.ListOrdersHandler
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(
	createHandler *command.CreateOrderHandler,
	linesHandler *command.UpdateOrderLinesHandler,
	confirmHandler *command.ConfirmOrderHandler,
	statusHandler *command.UpdateOrderStatusHandler,
	paymentHandler *command.UpdatePaymentStatusHandler,
	getHandler *query.GetOrderHandler,
	listHandler *query.ListOrdersHandler,
) *OrderHandler {
	return &OrderHandler{
		createHandler:  createHandler,
		linesHandler:   linesHandler,
		confirmHandler: confirmHandler,
		statusHandler:  statusHandler,
		paymentHandler: paymentHandler,
		getHandler:     getHandler,
		listHandler:    listHandler,
	}
}

// CreateOrder handles POST /orders
// @Summary Create a draft order
// @Description Computes totals and allocates the next order number of the day
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body command.CreateOrderCommand true "Order"
// @Success 201 {object} httpx.Response{data=domain.Order}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateOrderCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.Error(w, r, err)
		return
	}
	cmd.ActorID = auth.ActorFrom(r.Context())

	order, err := h.createHandler.Handle(r.Context(), cmd)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, "Order created successfully", order)
}

// GetOrder handles GET /orders/{id}
// @Summary Get an order
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} httpx.Response{data=domain.Order}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	order, err := h.getHandler.Handle(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, order)
}

// GetOrderByNumber handles GET /orders/number/{number}
// @Summary Get an order by number
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param number path string true "Order number"
// @Success 200 {object} httpx.Response{data=domain.Order}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /orders/number/{number} [get]
func (h *OrderHandler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := h.getHandler.ByNumber(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, order)
}

// ListOrders handles GET /orders
// @Summary List orders
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size, 1 to 100"
// @Param status query string false "Status"
// @Param channel query string false "Channel" Enums(POS, B2B, ONLINE)
// @Param payment_status query string false "Payment status"
// @Param warehouse_id query int false "Warehouse ID"
// @Param customer_id query int false "Customer ID"
// @Param date_from query string false "RFC 3339 lower bound"
// @Param date_to query string false "RFC 3339 upper bound"
// @Success 200 {object} httpx.Response{data=[]domain.Order}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /orders [get]
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := httpx.NewQuery(r)
	listQuery := query.ListOrdersQuery{
		Params:        q.Page(),
		Status:        domain.Status(q.String("status")),
		Channel:       domain.Channel(q.String("channel")),
		PaymentStatus: domain.PaymentStatus(q.String("payment_status")),
		WarehouseID:   q.Uint("warehouse_id"),
		CustomerID:    q.UintPtr("customer_id"),
		DateFrom:      q.Time("date_from"),
		DateTo:        q.Time("date_to"),
	}
	if err := q.Err(); err != nil {
		httpx.Error(w, r, err)
		return
	}

	page, err := h.listHandler.Handle(r.Context(), listQuery)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Page(w, page.Items, page.Meta)
}

// UpdateOrderLines handles PUT /orders/{id}/lines
// @Summary Replace the lines of a draft order
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body command.UpdateOrderLinesCommand true "Lines"
// @Success 200 {object} httpx.Response{data=domain.Order}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 409 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /orders/{id}/lines [put]
func (h *OrderHandler) UpdateOrderLines(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var cmd command.UpdateOrderLinesCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.Error(w, r, err)
		return
	}
	cmd.ID = id

	order, err := h.linesHandler.Handle(r.Context(), cmd)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, order)
}

// ConfirmOrder handles POST /orders/{id}/confirm
// @Summary Confirm an order
// @Description Takes the stock for every line, all or nothing
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} httpx.Response{data=domain.Order}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 409 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 422 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /orders/{id}/confirm [post]
func (h *OrderHandler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	order, err := h.confirmHandler.Handle(r.Context(), command.ConfirmOrderCommand{
		ID:      id,
		ActorID: auth.ActorFrom(r.Context()),
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, order)
}

// UpdateOrderStatus handles PATCH /orders/{id}/status
// @Summary Change an order status
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body command.UpdateOrderStatusCommand true "Target status"
// @Success 200 {object} httpx.Response{data=domain.Order}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 409 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 422 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /orders/{id}/status [patch]
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var cmd command.UpdateOrderStatusCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.Error(w, r, err)
		return
	}
	cmd.ID = id
	cmd.ActorID = auth.ActorFrom(r.Context())

	order, err := h.statusHandler.Handle(r.Context(), cmd)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, order)
}

// UpdatePaymentStatus handles PATCH /orders/{id}/payment
// @Summary Change an order payment status
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body command.UpdatePaymentStatusCommand true "Payment status"
// @Success 200 {object} httpx.Response{data=domain.Order}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 409 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /orders/{id}/payment [patch]
func (h *OrderHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var cmd command.UpdatePaymentStatusCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.Error(w, r, err)
		return
	}
	cmd.ID = id

	order, err := h.paymentHandler.Handle(r.Context(), cmd)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, order)
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/orders", h.ListOrders).Methods("GET")
	router.HandleFunc("/orders", h.CreateOrder).Methods("POST")
	router.HandleFunc("/orders/number/{number}", h.GetOrderByNumber).Methods("GET")
	router.HandleFunc("/orders/{id:[0-9]+}", h.GetOrder).Methods("GET")
	router.HandleFunc("/orders/{id:[0-9]+}/lines", h.UpdateOrderLines).Methods("PUT")
	router.HandleFunc("/orders/{id:[0-9]+}/confirm", h.ConfirmOrder).Methods("POST")
	router.HandleFunc("/orders/{id:[0-9]+}/status", h.UpdateOrderStatus).Methods("PATCH")
	router.HandleFunc("/orders/{id:[0-9]+}/payment", h.UpdatePaymentStatus).Methods("PATCH")
}
