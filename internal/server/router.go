package server

import (
	"context"
	"net/http"

	"bakehouse/internal/handlers"
	applog "bakehouse/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/login", handlers.Login)
	mux.HandleFunc("/signup", handlers.Signup)
	mux.HandleFunc("/logout", handlers.Logout)

	protected := map[string]http.HandlerFunc{
		"/app/api/dashboard":      handlers.Dashboard,
		"/app/api/products":       handlers.ProductResource,
		"/app/api/products/":      handlers.ProductResource,
		"/app/api/raw-materials":  handlers.RawMaterialResource,
		"/app/api/raw-materials/": handlers.RawMaterialResource,
		"/app/api/inventory":      handlers.InventoryResource,
		"/app/api/inventory/":     handlers.InventoryResource,
		"/app/api/orders":         handlers.OrderResource,
		"/app/api/orders/":        handlers.OrderResource,
		"/app/api/schedules":      handlers.ScheduleResource,
		"/app/api/schedules/":     handlers.ScheduleResource,
		"/app/api/insights":       handlers.InsightsResource,
	}
	for path, handler := range protected {
		mux.Handle(path, handlers.RequireAuthentication(handler))
		applog.Debug(context.Background(), "route registered", "path", path, "protected", true)
	}

	return mux
}
