package receipts

import (
	"fmt"
	"net/http"
	"time"

	"slawbackend/internal/data"
	"slawbackend/internal/logger"
	"slawbackend/internal/middleware"
)

// Service records goods-inward deliveries.
type Service struct {
	receipts *data.ReceiptRepository
	now      func() time.Time
}

func NewService(receipts *data.ReceiptRepository) *Service {
	return &Service{receipts: receipts, now: time.Now}
}

// ReceiveInput is one delivery line. Cost is the unit cost; zero means keep
// the ingredient's stored cost.
type ReceiveInput struct {
	IngredientID string  `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Supplier     string  `json:"supplier"`
	Invoice      string  `json:"invoice"`
	Notes        string  `json:"notes"`
	ReceivedBy   string  `json:"received_by"`
	Cost         float64 `json:"cost"`
}

func (in ReceiveInput) validate() error {
	if in.IngredientID == "" {
		return fmt.Errorf("ingredient_id is required")
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	return nil
}

func (s *Service) toReceipt(in ReceiveInput) data.GoodsReceipt {
	return data.GoodsReceipt{
		Timestamp:        s.now().Format(data.TimeFormat),
		IngredientID:     in.IngredientID,
		QuantityReceived: in.Quantity,
		Supplier:         in.Supplier,
		InvoiceNumber:    in.Invoice,
		Notes:            in.Notes,
		ReceivedBy:       in.ReceivedBy,
		UnitCost:         in.Cost,
	}
}

// Receive applies a single delivery.
func (s *Service) Receive(in ReceiveInput) (*data.GoodsReceipt, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	receipt, err := s.receipts.Record(s.toReceipt(in))
	if err != nil {
		return nil, err
	}

	logger.LogInfo("Received %.4g %s of %s (stock %.4g -> %.4g)",
		receipt.QuantityReceived, receipt.Unit, receipt.IngredientName,
		receipt.OldStock, receipt.NewStock)
	return receipt, nil
}

// ReceiveBulk applies several delivery lines in one transaction.
func (s *Service) ReceiveBulk(items []ReceiveInput) ([]data.GoodsReceipt, error) {
	receipts := make([]data.GoodsReceipt, 0, len(items))
	for i, in := range items {
		if err := in.validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		receipts = append(receipts, s.toReceipt(in))
	}
	return s.receipts.RecordBulk(receipts)
}

// ReceiveHandler handles POST /api/receive.
func (s *Service) ReceiveHandler(w http.ResponseWriter, r *http.Request) {
	var input ReceiveInput
	if err := middleware.ParseJSONRequest(r, &input); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request",
			"Invalid JSON request", err.Error())
		return
	}

	receipt, err := s.Receive(input)
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "receive_failed",
			"Failed to update inventory", err.Error())
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"message": "Delivery received",
		"receipt": receipt,
	})
}

// BulkReceiveHandler handles POST /api/receive/bulk.
func (s *Service) BulkReceiveHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Items []ReceiveInput `json:"items"`
	}
	if err := middleware.ParseJSONRequest(r, &input); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request",
			"Invalid JSON request", err.Error())
		return
	}
	if len(input.Items) == 0 {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request",
			"No items provided", "")
		return
	}

	receipts, err := s.ReceiveBulk(input.Items)
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "receive_failed",
			"Failed to receive delivery", err.Error())
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"message": fmt.Sprintf("Successfully received %d items", len(receipts)),
	})
}
