package main

// @title Warehouse Service API
// @version 1.0
// @description Catalog, warehouses, the stock ledger and the order engine behind one HTTP API

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. Without a configured secret the X-Actor-ID header is used instead.

// @tag.name Products
// @tag.description Products and their SKUs

// @tag.name Warehouses
// @tag.description Stocking locations and their policies

// @tag.name Inventory
// @tag.description Stock movements, transfers and levels

// @tag.name Orders
// @tag.description Order totals, numbering and lifecycle

// @tag.name Health
// @tag.description Health check endpoints
