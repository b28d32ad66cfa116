package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/warehouse-erp/internal/catalog/domain"
	"github.com/tair/warehouse-erp/internal/catalog/usecase/command"
	"github.com/tair/warehouse-erp/internal/catalog/usecase/query"
	"github.com/tair/warehouse-erp/pkg/httpx"
)

// ProductHandler handles HTTP requests for the catalog
type ProductHandler struct {
	createHandler    *command.CreateProductHandler
	updateHandler    *command.UpdateProductHandler
	deleteHandler    *command.DeleteProductHandler
	skuStatusHandler *command.SetSKUStatusHandler

	getHandler       *query.GetProductHandler
	listHandler      *query.ListProductsHandler
	bySKUHandler     *query.FindBySKUHandler
	byBarcodeHandler *query.FindByBarcodeHandler
}

// NewProductHandler creates a new product handler
func NewProductHandler(
	createHandler *command.CreateProductHandler,
	updateHandler *command.UpdateProductHandler,
	deleteHandler *command.DeleteProductHandler,
	skuStatusHandler *command.SetSKUStatusHandler,
	getHandler *query.GetProductHandler,
	listHandler *query.ListProductsHandler,
	bySKUHandler *query.FindBySKUHandler,
	byBarcodeHandler *query.FindByBarcodeHandler,
) *ProductHandler {
	return &ProductHandler{
		createHandler:    createHandler,
		updateHandler:    updateHandler,
		deleteHandler:    deleteHandler,
		skuStatusHandler: skuStatusHandler,
		getHandler:       getHandler,
		listHandler:      listHandler,
		bySKUHandler:     bySKUHandler,
		byBarcodeHandler: byBarcodeHandler,
	}
}

// CreateProduct handles POST /products
// @Summary Create a product
// @Description SKU codes and barcodes must be unique across the catalog
// @Tags Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body command.CreateProductCommand true "Product with its SKUs"
// @Success 201 {object} httpx.Response{data=domain.Product}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 409 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /products [post]
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateProductCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.Error(w, r, err)
		return
	}

	product, err := h.createHandler.Handle(r.Context(), cmd)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, "Product created successfully", product)
}

// GetProduct handles GET /products/{id}
// @Summary Get a product
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} httpx.Response{data=domain.Product}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	product, err := h.getHandler.Handle(r.Context(), query.GetProductQuery{ID: id})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, product)
}

// ListProducts handles GET /products
// @Summary List products
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size, 1 to 100"
// @Param search query string false "Name, brand or SKU code"
// @Param brand query string false "Brand"
// @Param category_id query int false "Category ID"
// @Param status query string false "SKU status" Enums(ACTIVE, ARCHIVED)
// @Param is_active query bool false "Active flag"
// @Param sort query string false "Sort field"
// @Success 200 {object} httpx.Response{data=[]domain.Product}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /products [get]
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := httpx.NewQuery(r)
	listQuery := query.ListProductsQuery{
		Params:     q.Page(),
		Search:     q.String("search"),
		Brand:      q.String("brand"),
		CategoryID: q.UintPtr("category_id"),
		Status:     domain.SKUStatus(q.String("status")),
		IsActive:   q.Bool("is_active"),
		Sort:       q.String("sort"),
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

// UpdateProduct handles PATCH /products/{id}
// @Summary Update a product
// @Tags Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body command.UpdateProductCommand true "Fields to change"
// @Success 200 {object} httpx.Response{data=domain.Product}
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 409 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /products/{id} [patch]
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var cmd command.UpdateProductCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.Error(w, r, err)
		return
	}
	cmd.ID = id

	product, err := h.updateHandler.Handle(r.Context(), cmd)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, product)
}

// DeleteProduct handles DELETE /products/{id}
// @Summary Archive a product
// @Description The product and its SKUs are archived, never removed
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} httpx.Response
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	if err := h.deleteHandler.Handle(r.Context(), command.DeleteProductCommand{ID: id}); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Response{Success: true, Message: "Product archived"})
}

// FindBySKU handles GET /products/sku/{code}
// @Summary Find a product by SKU code
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Param code path string true "SKU code"
// @Success 200 {object} httpx.Response{data=domain.Product}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /products/sku/{code} [get]
func (h *ProductHandler) FindBySKU(w http.ResponseWriter, r *http.Request) {
	product, err := h.bySKUHandler.Handle(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, product)
}

// FindByBarcode handles GET /products/barcode/{barcode}
// @Summary Find a product by barcode
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Param barcode path string true "Barcode"
// @Success 200 {object} httpx.Response{data=domain.Product}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /products/barcode/{barcode} [get]
func (h *ProductHandler) FindByBarcode(w http.ResponseWriter, r *http.Request) {
	product, err := h.byBarcodeHandler.Handle(r.Context(), mux.Vars(r)["barcode"])
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, product)
}

// SetSKUStatus handles PUT /skus/{code}/status
// @Summary Set a SKU status
// @Tags Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param code path string true "SKU code"
// @Param request body command.SetSKUStatusCommand true "New status"
// @Success 200 {object} httpx.Response
// @Failure 400 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 401 {object} httpx.Response{error=httpx.ErrorBody}
// @Failure 404 {object} httpx.Response{error=httpx.ErrorBody}
// @Router /skus/{code}/status [put]
func (h *ProductHandler) SetSKUStatus(w http.ResponseWriter, r *http.Request) {
	var cmd command.SetSKUStatusCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.Error(w, r, err)
		return
	}
	cmd.Code = mux.Vars(r)["code"]

	if err := h.skuStatusHandler.Handle(r.Context(), cmd); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Response{Success: true, Message: "SKU status updated"})
}

// RegisterRoutes registers all catalog routes
func (h *ProductHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/products", h.ListProducts).Methods("GET")
	router.HandleFunc("/products", h.CreateProduct).Methods("POST")
	router.HandleFunc("/products/sku/{code}", h.FindBySKU).Methods("GET")
	router.HandleFunc("/products/barcode/{barcode}", h.FindByBarcode).Methods("GET")
	router.HandleFunc("/products/{id:[0-9]+}", h.GetProduct).Methods("GET")
	router.HandleFunc("/products/{id:[0-9]+}", h.UpdateProduct).Methods("PATCH")
	router.HandleFunc("/products/{id:[0-9]+}", h.DeleteProduct).Methods("DELETE")
	router.HandleFunc("/skus/{code}/status", h.SetSKUStatus).Methods("PUT")
}
