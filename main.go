// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"slawbackend/internal/adjustments"
	"slawbackend/internal/config"
	"slawbackend/internal/data"
	"slawbackend/internal/inventory"
	"slawbackend/internal/logger"
	"slawbackend/internal/menu"
	"slawbackend/internal/middleware"
	"slawbackend/internal/receipts"
	ordersync "slawbackend/internal/sync"
	"slawbackend/internal/toast"
)

type App struct {
	addr          string
	mux           *http.ServeMux
	connections   sync.WaitGroup
	totalRequests int64
}

func main() {
	// Step 1: Setup configuration first
	config.LoadEnv()
	config.ConfigurePaths()

	// Step 2: Setup logging
	loggerConfig := config.LoggerConfig()
	if err := logger.SetupLogger(loggerConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Only NOW is logging safe to use!
	logger.LogInfo("Environment and paths loaded. Logger ready.")
	config.LogCurrentEnvironment()

	// Step 3: Upstream POS API configuration
	config.LoadToastConfig()

	// Step 4: Database
	db, err := data.OpenDB(config.DatabasePath())
	if err != nil {
		logger.LogFatal("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := data.CreateTables(db); err != nil {
		logger.LogFatal("Failed to create database tables: %v", err)
	}

	// Step 5: Repositories and services
	ingredientRepo := data.NewIngredientRepository(db)
	recipeRepo := data.NewRecipeRepository(db)
	menuRepo := data.NewMenuRepository(db)
	orderRepo := data.NewOrderRepository(db)
	receiptRepo := data.NewReceiptRepository(db)
	adjustmentRepo := data.NewAdjustmentRepository(db)

	client := toast.NewClient(config.OrdersAPIBase(), config.AuthAPIBase(), config.MenusAPIBase())
	credStore := toast.NewCredentialStore(config.CredentialsFile())
	watermark := ordersync.NewWatermark(config.LastSyncFile())

	inventoryService := inventory.NewService(ingredientRepo, recipeRepo)
	receiptService := receipts.NewService(receiptRepo)
	adjustmentService := adjustments.NewService(adjustmentRepo, receiptRepo)
	menuService := menu.NewService(menuRepo, client, credStore)

	syncService := ordersync.NewService(orderRepo, recipeRepo, ingredientRepo, menuRepo, client, credStore, watermark)
	syncHandler := ordersync.NewHandler(syncService, orderRepo)

	// Step 6: Setup app
	app := &App{
		addr: serverAddress(),
		mux:  routes(inventoryService, receiptService, adjustmentService, menuService, syncHandler),
	}

	// Step 7: Run server
	app.Run()
}

// serverAddress builds the server address from environment variables
func serverAddress() string {
	host := os.Getenv("SERVER_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "5000"
	}
	return host + ":" + port
}

// routes sets up all API routes
func routes(
	inventoryService *inventory.Service,
	receiptService *receipts.Service,
	adjustmentService *adjustments.Service,
	menuService *menu.Service,
	syncHandler *ordersync.Handler,
) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Sync engine
	mux.HandleFunc("/api/sync/toast", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodPost, syncHandler.PreviewHandler)))
	mux.HandleFunc("/api/sync/toast/confirm", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodPost, syncHandler.ConfirmHandler)))

	// Order browsing
	mux.HandleFunc("/api/orders", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodGet, syncHandler.OrdersHandler)))
	mux.HandleFunc("/api/orders/stats", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodGet, syncHandler.OrderStatsHandler)))
	mux.HandleFunc("/api/orders/", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodGet, syncHandler.OrderDetailHandler)))

	// Ingredients and recipes
	mux.HandleFunc("/api/stock", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodGet, inventoryService.StockHandler)))
	mux.HandleFunc("/api/ingredients", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodPost, inventoryService.IngredientsHandler)))
	mux.HandleFunc("/api/ingredients/", middleware.APIMiddleware(inventoryService.IngredientByIDHandler))
	mux.HandleFunc("/api/recipes", middleware.APIMiddleware(inventoryService.RecipesHandler))
	mux.HandleFunc("/api/recipes/", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodDelete, inventoryService.RecipeByGUIDHandler)))

	// Goods inward and adjustments
	mux.HandleFunc("/api/receive", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodPost, receiptService.ReceiveHandler)))
	mux.HandleFunc("/api/receive/bulk", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodPost, receiptService.BulkReceiveHandler)))
	mux.HandleFunc("/api/adjust", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodPost, adjustmentService.AdjustHandler)))
	mux.HandleFunc("/api/waste", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodPost, adjustmentService.AdjustHandler)))
	mux.HandleFunc("/api/history", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodGet, adjustmentService.HistoryHandler)))

	// Menu catalog
	mux.HandleFunc("/api/menu/sync", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodPost, menuService.SyncHandler)))
	mux.HandleFunc("/api/menu/local", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodGet, menuService.LocalMenuHandler)))
	mux.HandleFunc("/api/toast/menu", middleware.APIMiddleware(
		middleware.RequireMethod(http.MethodGet, menuService.ProxyHandler)))

	return mux
}

// Run starts the HTTP server
func (a *App) Run() {
	server := &http.Server{
		Addr:         a.addr,
		Handler:      a.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a separate goroutine
	go func() {
		logger.LogInfo("Starting server on %s", a.addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogFatal("Server failed: %v", err)
		}
	}()

	// Wait for a shutdown signal
	<-stop
	logger.LogInfo("Shutdown signal received")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server gracefully
	if err := server.Shutdown(ctx); err != nil {
		logger.LogError("Server shutdown error: %v", err)
	}

	// Wait for active connections to finish
	logger.LogInfo("Waiting for active connections to finish...")
	a.connections.Wait()
	logger.LogInfo("All connections closed. Total requests handled: %d", atomic.LoadInt64(&a.totalRequests))
	logger.LogInfo("Server shut down gracefully")
}

// Handler assembles all middleware around the main mux
func (a *App) Handler() http.Handler {
	var handler http.Handler = a.mux

	handler = a.trackConnections(handler)

	return handler
}

// Middleware: track active connections and total requests
func (a *App) trackConnections(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.connections.Add(1)
		atomic.AddInt64(&a.totalRequests, 1)
		defer a.connections.Done()

		h.ServeHTTP(w, r)
	})
}
