package adjustments

import (
	"fmt"
	"net/http"
	"time"

	"slawbackend/internal/data"
	"slawbackend/internal/logger"
	"slawbackend/internal/middleware"
)

const wasteSummaryWindow = 30 * 24 * time.Hour

// Service records manual stock adjustments and serves the combined audit
// history.
type Service struct {
	adjustments *data.AdjustmentRepository
	receipts    *data.ReceiptRepository
	now         func() time.Time
}

func NewService(adjustments *data.AdjustmentRepository, receipts *data.ReceiptRepository) *Service {
	return &Service{adjustments: adjustments, receipts: receipts, now: time.Now}
}

// AdjustInput is one manual adjustment. Type defaults to Deduction, the
// waste case.
type AdjustInput struct {
	IngredientID string  `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Reason       string  `json:"reason"`
	Type         string  `json:"type"`
	Staff        string  `json:"staff"`
	Notes        string  `json:"notes"`
}

// Adjust applies one manual adjustment.
func (s *Service) Adjust(in AdjustInput) (*data.Adjustment, error) {
	if in.IngredientID == "" {
		return nil, fmt.Errorf("ingredient_id is required")
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if in.Reason == "" {
		return nil, fmt.Errorf("reason is required")
	}
	if in.Type == "" {
		in.Type = "Deduction"
	}

	adj, err := s.adjustments.Record(data.Adjustment{
		Timestamp:    s.now().Format(data.TimeFormat),
		IngredientID: in.IngredientID,
		Quantity:     in.Quantity,
		Type:         in.Type,
		Reason:       in.Reason,
		StaffMember:  in.Staff,
		Notes:        in.Notes,
	})
	if err != nil {
		return nil, err
	}

	logger.LogInfo("Adjustment logged: %s %.4g %s of %s (%s)",
		adj.Type, adj.Quantity, adj.Unit, adj.IngredientName, adj.Reason)
	return adj, nil
}

// AdjustHandler handles POST /api/adjust and its legacy alias /api/waste.
func (s *Service) AdjustHandler(w http.ResponseWriter, r *http.Request) {
	var input AdjustInput
	if err := middleware.ParseJSONRequest(r, &input); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request",
			"Invalid JSON request", err.Error())
		return
	}

	adj, err := s.Adjust(input)
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "adjustment_failed",
			"Failed to log adjustment", err.Error())
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"message":    "Adjustment logged",
		"adjustment": adj,
	})
}

// HistoryHandler handles GET /api/history: the ten most recent deliveries
// and adjustments plus the trailing 30-day waste summary.
func (s *Service) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	deliveries, err := s.receipts.History(10)
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
			"Failed to load delivery history", err.Error())
		return
	}
	if deliveries == nil {
		deliveries = []data.GoodsReceipt{}
	}

	waste, err := s.adjustments.History(10)
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
			"Failed to load adjustment history", err.Error())
		return
	}
	if waste == nil {
		waste = []data.Adjustment{}
	}

	summary, err := s.adjustments.SummarizeWaste(s.now().Add(-wasteSummaryWindow))
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
			"Failed to load waste summary", err.Error())
		return
	}
	if summary == nil {
		summary = []data.WasteSummary{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deliveries":    deliveries,
		"waste":         waste,
		"waste_summary": summary,
	})
}
