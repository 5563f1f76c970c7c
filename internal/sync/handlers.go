package sync

import (
	"net/http"
	"strconv"
	"strings"

	"slawbackend/internal/data"
	"slawbackend/internal/middleware"
)

// Handler exposes the sync engine and order browsing over HTTP.
type Handler struct {
	service *Service
	orders  *data.OrderRepository
}

func NewHandler(service *Service, orders *data.OrderRepository) *Handler {
	return &Handler{service: service, orders: orders}
}

// PreviewHandler handles POST /api/sync/toast. It reports what a commit
// would do without mutating anything.
func (h *Handler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Preview(r.Context())
	if err != nil {
		writeSyncError(w, r, err)
		return
	}

	if result.Message != "" {
		middleware.WriteAPISuccess(w, r, map[string]interface{}{
			"message":    result.Message,
			"new_orders": 0,
		})
		return
	}

	orders := result.Orders
	if orders == nil {
		orders = []OrderPreview{}
	}
	deductions := result.Deductions
	if deductions == nil {
		deductions = []DeductionPreview{}
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"preview":    true,
		"orders":     orders,
		"deductions": deductions,
		"new_orders": len(orders),
	})
}

// ConfirmHandler handles POST /api/sync/toast/confirm, the commit-mode sync.
func (h *Handler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Commit(r.Context())
	if err != nil {
		writeSyncError(w, r, err)
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"message": result.Message,
	})
}

// OrdersHandler handles GET /api/orders, the recent-orders list.
func (h *Handler) OrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListRecent(50)
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
			"Failed to load orders", err.Error())
		return
	}
	if orders == nil {
		orders = []data.OrderSummary{}
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"orders": orders,
	})
}

// OrderDetailHandler handles GET /api/orders/{id}: the stored order with its
// items and ingredient deductions.
func (h *Handler) OrderDetailHandler(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	orderID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request",
			"Invalid order id", idStr)
		return
	}

	details, err := h.orders.GetDetails(orderID)
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
			"Failed to load order", err.Error())
		return
	}
	if details == nil {
		middleware.WriteAPIError(w, r, http.StatusNotFound, "not_found", "Order not found", "")
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"order": details,
	})
}

// OrderStatsHandler handles GET /api/orders/stats.
func (h *Handler) OrderStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Stats(h.service.now())
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
			"Failed to load order stats", err.Error())
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"stats": stats,
	})
}

// writeSyncError maps the sync error taxonomy onto HTTP responses. Upstream
// failures surface as 502 so the dashboard can distinguish them from local
// faults.
func writeSyncError(w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := KindOf(err)
	if !ok {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "sync_error",
			"Sync failed", err.Error())
		return
	}

	switch kind {
	case KindConfig:
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "config_error",
			"Sync is not configured", err.Error())
	case KindAuth:
		middleware.WriteAPIError(w, r, http.StatusBadGateway, "auth_error",
			"Upstream authentication failed", err.Error())
	case KindFetch:
		middleware.WriteAPIError(w, r, http.StatusBadGateway, "fetch_error",
			"Failed to fetch orders from upstream", err.Error())
	default:
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "persistence_error",
			"Failed to store synced orders", err.Error())
	}
}
