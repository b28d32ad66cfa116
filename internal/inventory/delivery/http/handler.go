package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/warehouse-erp/internal/inventory/domain"
	"github.com/tair/warehouse-erp/internal/inventory/usecase/command"
	"github.com/tair/warehouse-erp/internal/inventory/usecase/query"
	"github.com/tair/warehouse-erp/pkg/auth"
	"github.com/tair/warehouse-erp/pkg/httpx"
)

// InventoryHandler handles HTTP requests for the stock ledger
type InventoryHandler struct {
	appendHandler   *command.AppendMovementHandler
	batchHandler    *command.AppendMovementsHandler
	transferHandler *command.TransferStockHandler

	movementsHandler *query.ListMovementsHandler
	levelHandler     *query.GetStockLevelHandler
	levelsHandler    *query.ListStockLevelsHandler
	verifyHandler    *query.VerifyStockLevelHandler
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(
	appendHandler *command.AppendMovementHandler,
	batchHandler *command.AppendMovementsHandler,
	transferHandler *command.TransferStockHandler,
	movementsHandler *query.ListMovementsHandler,
	levelHandler *query.GetStockLevelHandler,
	levelsHandler *query.ListStockLevelsHandler,
	verifyHandler *query.VerifyStockLevelHandler,
) *InventoryHandler {
	return &InventoryHandler{
		appendHandler:    appendHandler,
		batchHandler:     batchHandler,
		transferHandler:  transferHandler,
		movementsHandler: movementsHandler,
		levelHandler:     levelHandler,
		levelsHandler:    levelsHandler,
		verifyHandler:    verifyHandler,
	}
}

// AppendMovement handles POST /movements
// @Summary Record a stock movement
// @Description Appends to the ledger and updates the stock level in one transaction
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body command.MovementInput true "Movement"
// @Success 201 {object} httpx.Response{data=domain.StockMovement}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 409 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 422 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /movements [post]
func (h *InventoryHandler) AppendMovement(w http.ResponseWriter, r *http.Request) {
	var in command.MovementInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}

	movement, err := h.appendHandler.Handle(r.Context(), command.AppendMovementCommand{
		MovementInput: in,
		ActorID:       auth.ActorFrom(r.Context()),
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, "Movement recorded", movement)
}

// AppendMovements handles POST /movements/batch
// @Summary Record stock movements
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body command.AppendMovementsCommand true "Movements, applied all or nothing"
// @Success 201 {object} httpx.Response{data=[]domain.StockMovement}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 409 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 422 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /movements/batch [post]
func (h *InventoryHandler) AppendMovements(w http.ResponseWriter, r *http.Request) {
	var cmd command.AppendMovementsCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.Error(w, r, err)
		return
	}
	cmd.ActorID = auth.ActorFrom(r.Context())

	movements, err := h.batchHandler.Handle(r.Context(), cmd)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, "Movements recorded", movements)
}

// TransferStock handles POST /transfers
// @Summary Transfer stock between warehouses
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body command.TransferStockCommand true "Transfer"
// @Success 201 {object} httpx.Response{data=object}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 409 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 422 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /transfers [post]
func (h *InventoryHandler) TransferStock(w http.ResponseWriter, r *http.Request) {
	var cmd command.TransferStockCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.Error(w, r, err)
		return
	}
	cmd.ActorID = auth.ActorFrom(r.Context())

	transfer, err := h.transferHandler.Handle(r.Context(), cmd)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, "Stock transferred", transfer)
}

// ListMovements handles GET /movements
// @Summary List stock movements
// @Tags Inventory
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size, 1 to 100"
// @Param product_id query int false "Product ID"
// @Param sku_code query string false "SKU code"
// @Param type query string false "Movement type" Enums(IN, OUT, ADJ)
// @Param ref_type query string false "Reference type"
// @Param ref_id query string false "Reference ID"
// @Param warehouse_id query int false "Warehouse ID"
// @Param actor_id query int false "Actor ID"
// @Param date_from query string false "RFC 3339 lower bound"
// @Param date_to query string false "RFC 3339 upper bound"
// @Success 200 {object} httpx.Response{data=[]domain.StockMovement}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /movements [get]
func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	q := httpx.NewQuery(r)
	listQuery := query.ListMovementsQuery{
		Params:      q.Page(),
		ProductID:   q.Uint("product_id"),
		SKUCode:     q.String("sku_code"),
		Type:        domain.MovementType(q.String("type")),
		RefType:     domain.RefType(q.String("ref_type")),
		RefID:       q.String("ref_id"),
		WarehouseID: q.Uint("warehouse_id"),
		ActorID:     q.Uint("actor_id"),
		DateFrom:    q.Time("date_from"),
		DateTo:      q.Time("date_to"),
	}
	if err := q.Err(); err != nil {
		httpx.Error(w, r, err)
		return
	}

	page, err := h.movementsHandler.Handle(r.Context(), listQuery)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Page(w, page.Items, page.Meta)
}

// ListStockLevels handles GET /stock-levels
// @Summary List stock levels
// @Tags Inventory
// @Security BearerAuth
// @Produce json
// @Param sku_code query string false "SKU code"
// @Param product_id query int false "Product ID"
// @Param warehouse_id query int false "Warehouse ID"
// @Success 200 {object} httpx.Response{data=[]domain.StockLevel}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /stock-levels [get]
func (h *InventoryHandler) ListStockLevels(w http.ResponseWriter, r *http.Request) {
	q := httpx.NewQuery(r)
	filter := domain.LevelFilter{
		SKUCode:     q.String("sku_code"),
		ProductID:   q.Uint("product_id"),
		WarehouseID: q.Uint("warehouse_id"),
	}
	if err := q.Err(); err != nil {
		httpx.Error(w, r, err)
		return
	}

	levels, err := h.levelsHandler.Handle(r.Context(), filter)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, levels)
}

// GetStockLevel handles GET /stock-levels/{sku}/{warehouse_id}
// @Summary Get a stock level
// @Tags Inventory
// @Security BearerAuth
// @Produce json
// @Param sku path string true "SKU code"
// @Param warehouse_id path int true "Warehouse ID"
// @Success 200 {object} httpx.Response{data=domain.StockLevel}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /stock-levels/{sku}/{warehouse_id} [get]
func (h *InventoryHandler) GetStockLevel(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := httpx.PathUint(r, "warehouse_id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	level, err := h.levelHandler.Handle(r.Context(), mux.Vars(r)["sku"], warehouseID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, level)
}

// VerifyStockLevel handles GET /stock-levels/{sku}/{warehouse_id}/verify
// @Summary Verify a stock level against the ledger
// @Tags Inventory
// @Security BearerAuth
// @Produce json
// @Param sku path string true "SKU code"
// @Param warehouse_id path int true "Warehouse ID"
// @Success 200 {object} httpx.Response{data=object}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /stock-levels/{sku}/{warehouse_id}/verify [get]
func (h *InventoryHandler) VerifyStockLevel(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := httpx.PathUint(r, "warehouse_id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	verification, err := h.verifyHandler.Handle(r.Context(), mux.Vars(r)["sku"], warehouseID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, verification)
}

// RegisterRoutes registers all inventory routes
func (h *InventoryHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/movements", h.ListMovements).Methods("GET")
	router.HandleFunc("/movements", h.AppendMovement).Methods("POST")
	router.HandleFunc("/movements/batch", h.AppendMovements).Methods("POST")
	router.HandleFunc("/transfers", h.TransferStock).Methods("POST")
	router.HandleFunc("/stock-levels", h.ListStockLevels).Methods("GET")
	router.HandleFunc("/stock-levels/{sku}/{warehouse_id:[0-9]+}", h.GetStockLevel).Methods("GET")
	router.HandleFunc("/stock-levels/{sku}/{warehouse_id:[0-9]+}/verify", h.VerifyStockLevel).Methods("GET")
}
