package app

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/warehouse-erp/internal/testutil"
	"github.com/tair/warehouse-erp/kafka"
	"github.com/tair/warehouse-erp/pkg/config"
)

var routeParam = regexp.MustCompile(`\{([a-z_]+):[^}]*\}`)

// every API route carries a swag @Router annotation on its handler
func TestEveryRouteIsDocumented(t *testing.T) {
	handlers, err := InitializeHandlers(config.Config{}, testutil.NewDB(t), nil, kafka.NopPublisher{}, prometheus.NewRegistry())
	require.NoError(t, err)

	router := mux.NewRouter()
	handlers.Products.RegisterRoutes(router)
	handlers.Warehouses.RegisterRoutes(router)
	handlers.Inventory.RegisterRoutes(router)
	handlers.Orders.RegisterRoutes(router)

	files, err := filepath.Glob("../*/delivery/http/handler.go")
	require.NoError(t, err)
	require.Len(t, files, 4)
	var docs strings.Builder
	for _, f := range files {
		src, err := os.ReadFile(f)
		require.NoError(t, err)
		docs.Write(src)
	}

	var routes int
	err = router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		path := routeParam.ReplaceAllString(tpl, "{$1}")
		for _, m := range methods {
			routes++
			want := "// @Router " + path + " [" + strings.ToLower(m) + "]"
			assert.Contains(t, docs.String(), want)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 28, routes)
}
