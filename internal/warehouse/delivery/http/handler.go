package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/warehouse-erp/internal/warehouse/usecase/command"
	"github.com/tair/warehouse-erp/internal/warehouse/usecase/query"
	"github.com/tair/warehouse-erp/pkg/httpx"
)

// WarehouseHandler handles HTTP requests for warehouses
type WarehouseHandler struct {
	createHandler *command.CreateWarehouseHandler
	updateHandler *command.UpdateWarehouseHandler
	getHandler    *query.GetWarehouseHandler
	listHandler   *query.ListWarehousesHandler
}

// NewWarehouseHandler creates a new warehouse handler
func NewWarehouseHandler(
	createHandler *command.CreateWarehouseHandler,
	updateHandler *command.UpdateWarehouseHandler,
	getHandler *query.GetWarehouseHandler,
	listHandler *query.ListWarehousesHandler,
) *WarehouseHandler {
	return &WarehouseHandler{
		createHandler: createHandler,
		updateHandler: updateHandler,
		getHandler:    getHandler,
		listHandler:   listHandler,
	}
}

// CreateWarehouse handles POST /warehouses
// @Summary Create a warehouse
// @Tags Warehouses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body command.CreateWarehouseCommand true "Warehouse data"
// @Success 201 {object} httpx.Response{data=object}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 409 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /warehouses [post]
func (h *WarehouseHandler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateWarehouseCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.Error(w, r, err)
		return
	}

	warehouse, err := h.createHandler.Handle(r.Context(), cmd)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, "Warehouse created successfully", warehouse)
}

// GetWarehouse handles GET /warehouses/{id}
// @Summary Get a warehouse
// @Tags Warehouses
// @Security BearerAuth
// @Produce json
// @Param id path int true "Warehouse ID"
// @Success 200 {object} httpx.Response{data=object}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /warehouses/{id} [get]
func (h *WarehouseHandler) GetWarehouse(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	warehouse, err := h.getHandler.Handle(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, warehouse)
}

// GetWarehouseByCode handles GET /warehouses/code/{code}
// @Summary Get a warehouse by code
// @Tags Warehouses
// @Security BearerAuth
// @Produce json
// @Param code path string true "Warehouse code"
// @Success 200 {object} httpx.Response{data=object}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /warehouses/code/{code} [get]
func (h *WarehouseHandler) GetWarehouseByCode(w http.ResponseWriter, r *http.Request) {
	warehouse, err := h.getHandler.ByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, warehouse)
}

// ListWarehouses handles GET /warehouses
// @Summary List warehouses
// @Tags Warehouses
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size, 1 to 100"
// @Param is_active query bool false "Active flag"
// @Param search query string false "Code or name"
// @Success 200 {object} httpx.Response{data=array}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /warehouses [get]
func (h *WarehouseHandler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	q := httpx.NewQuery(r)
	listQuery := query.ListWarehousesQuery{
		Params:   q.Page(),
		IsActive: q.Bool("is_active"),
		Search:   q.String("search"),
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

// UpdateWarehouse handles PATCH /warehouses/{id}
// @Summary Update a warehouse
// @Tags Warehouses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Warehouse ID"
// @Param request body command.UpdateWarehouseCommand true "Fields to change"
// @Success 200 {object} httpx.Response{data=object}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /warehouses/{id} [patch]
func (h *WarehouseHandler) UpdateWarehouse(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var cmd command.UpdateWarehouseCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.Error(w, r, err)
		return
	}
	cmd.ID = id

	warehouse, err := h.updateHandler.Handle(r.Context(), cmd)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, warehouse)
}

// RegisterRoutes registers all warehouse routes
func (h *WarehouseHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/warehouses", h.ListWarehouses).Methods("GET")
	router.HandleFunc("/warehouses", h.CreateWarehouse).Methods("POST")
	router.HandleFunc("/warehouses/code/{code}", h.GetWarehouseByCode).Methods("GET")
	router.HandleFunc("/warehouses/{id:[0-9]+}", h.GetWarehouse).Methods("GET")
	router.HandleFunc("/warehouses/{id:[0-9]+}", h.UpdateWarehouse).Methods("PATCH")
}
