package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"slawbackend/internal/data"
	"slawbackend/internal/logger"
	"slawbackend/internal/toast"
)

// Service runs the order-sync reconciliation between the upstream POS API
// and the local inventory database. Preview and Commit share the same gather
// phase; only Commit mutates anything.
type Service struct {
	orders      *data.OrderRepository
	recipes     *data.RecipeRepository
	ingredients *data.IngredientRepository
	menu        *data.MenuRepository
	client      *toast.Client
	store       *toast.CredentialStore
	watermark   *Watermark
	now         func() time.Time
}

func NewService(
	orders *data.OrderRepository,
	recipes *data.RecipeRepository,
	ingredients *data.IngredientRepository,
	menu *data.MenuRepository,
	client *toast.Client,
	store *toast.CredentialStore,
	watermark *Watermark,
) *Service {
	return &Service{
		orders:      orders,
		recipes:     recipes,
		ingredients: ingredients,
		menu:        menu,
		client:      client,
		store:       store,
		watermark:   watermark,
		now:         time.Now,
	}
}

// SetClock overrides the time source. Tests use this to pin the sync window.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ItemPreview is one sold line in the preview payload.
type ItemPreview struct {
	Name string  `json:"name"`
	Qty  float64 `json:"qty"`
}

// OrderPreview is one new order in the preview payload.
type OrderPreview struct {
	GUID        string        `json:"guid"`
	OrderNumber string        `json:"orderNumber"`
	TotalAmount float64       `json:"totalAmount"`
	ClosedDate  string        `json:"closedDate"`
	Items       []ItemPreview `json:"items"`
}

// DeductionPreview is one batch-total deduction in the preview payload.
type DeductionPreview struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Display  string  `json:"display"`
}

// PreviewResult is what a preview-mode sync reports. Message is set only for
// the confirmed-empty case.
type PreviewResult struct {
	Orders     []OrderPreview
	Deductions []DeductionPreview
	EndTime    string
	Message    string
}

// CommitResult summarizes a committed sync.
type CommitResult struct {
	OrdersStored     int
	DeductionsLogged int
	Message          string
}

// pendingItem is a gathered selection with its resolved name and recipe.
type pendingItem struct {
	selection  toast.Selection
	name       string
	components []data.RecipeComponent
}

type pendingOrder struct {
	detail *toast.Order
	items  []pendingItem
}

// batch is the outcome of the gather phase shared by preview and commit.
type batch struct {
	pending  []pendingOrder
	acc      *Accumulator
	refCount int
	start    time.Time
	end      time.Time
}

// gather loads credentials, fetches the window's order references, and pulls
// full details for every order not already stored. Details are fetched at
// most once per invocation; commit reuses what gather collected.
func (s *Service) gather(ctx context.Context) (*batch, error) {
	creds, err := s.store.Load()
	if err != nil {
		return nil, configError("failed to load credentials: %w", err)
	}
	if creds.Tenant() == "" {
		return nil, configError("missing RESTAURANT_GUID")
	}

	if err := s.store.EnsureToken(ctx, s.client, creds); err != nil {
		return nil, authError("missing access token and refresh failed: %w", err)
	}

	now := s.now()
	start := s.watermark.Load(now)
	end := now

	logger.LogInfo("Sync period: %s to %s", toast.FormatTime(start), toast.FormatTime(end))

	refs, err := s.fetchRefs(ctx, creds, start, end)
	if err != nil {
		return nil, err
	}

	b := &batch{
		acc:      NewAccumulator(),
		refCount: len(refs),
		start:    start,
		end:      end,
	}

	for _, ref := range refs {
		if ref.GUID == "" {
			continue
		}

		exists, err := s.orders.Exists(ref.GUID)
		if err != nil {
			return nil, persistenceError("failed to check order %s: %w", ref.GUID, err)
		}
		if exists {
			continue
		}

		detail, err := s.client.FetchOrderDetail(ctx, creds.AccessToken, creds.Tenant(), ref.GUID)
		if err != nil {
			logger.LogWarn("Skipping order %s: detail fetch failed: %v", ref.GUID, err)
			continue
		}

		pending := pendingOrder{detail: detail}
		for _, sel := range detail.FlattenedSelections() {
			item := pendingItem{
				selection: sel,
				name:      s.resolveItemName(sel),
			}
			if sel.Item.GUID != "" {
				components, err := s.recipes.ComponentsFor(sel.Item.GUID)
				if err != nil {
					return nil, persistenceError("failed to load recipe for %s: %w", sel.Item.GUID, err)
				}
				item.components = components
				b.acc.Add(components, sel.Qty())
			} else {
				logger.LogWarn("Order %s has a selection without an item GUID; no deductions applied", detail.GUID)
			}
			pending.items = append(pending.items, item)
		}

		b.pending = append(b.pending, pending)
	}

	return b, nil
}

// fetchRefs fetches the window's order references. On failure it refreshes
// the token exactly once and retries the fetch exactly once; a second
// failure is terminal and leaves the watermark alone.
func (s *Service) fetchRefs(ctx context.Context, creds *toast.Credentials, start, end time.Time) ([]toast.OrderRef, error) {
	refs, err := s.client.FetchOrders(ctx, creds.AccessToken, creds.Tenant(), start, end)
	if err == nil {
		return refs, nil
	}

	logger.LogWarn("Order fetch failed, attempting token refresh: %v", err)
	if rerr := s.store.Refresh(ctx, s.client, creds); rerr != nil {
		return nil, authError("fetch failed and token refresh failed: %w", rerr)
	}

	refs, err = s.client.FetchOrders(ctx, creds.AccessToken, creds.Tenant(), start, end)
	if err != nil {
		return nil, fetchError("order fetch failed after token refresh: %w", err)
	}
	return refs, nil
}

func (s *Service) resolveItemName(sel toast.Selection) string {
	if sel.Item.GUID != "" {
		name, err := s.menu.LookupName(sel.Item.GUID)
		if err != nil {
			logger.LogWarn("Menu name lookup failed for %s: %v", sel.Item.GUID, err)
		} else if name != "" {
			return name
		}
	}
	if sel.Item.Name != "" {
		return sel.Item.Name
	}
	return "Unknown"
}

// Preview runs the gather phase and reports what a commit would do. It never
// writes to the database, the watermark, or the credentials file beyond a
// token refresh.
func (s *Service) Preview(ctx context.Context) (*PreviewResult, error) {
	logger.LogInfo("Starting POS sales sync (preview mode)")

	b, err := s.gather(ctx)
	if err != nil {
		return nil, err
	}

	result := &PreviewResult{EndTime: toast.FormatTime(b.end)}

	if b.refCount == 0 {
		result.Message = "No new orders found"
		return result, nil
	}

	for _, pending := range b.pending {
		preview := OrderPreview{
			GUID:        pending.detail.GUID,
			OrderNumber: pending.detail.OrderNumber.String(),
			TotalAmount: pending.detail.TotalAmount,
			ClosedDate:  pending.detail.ClosedDate,
		}
		for _, item := range pending.items {
			preview.Items = append(preview.Items, ItemPreview{
				Name: item.name,
				Qty:  item.selection.Qty(),
			})
		}
		result.Orders = append(result.Orders, preview)
	}

	result.Deductions, err = s.describeDeductions(b.acc)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// describeDeductions joins accumulator totals with ingredient names and
// units, sorted by name for stable output. Totals for unknown ingredient ids
// are dropped, matching how unmapped recipe lines are treated.
func (s *Service) describeDeductions(acc *Accumulator) ([]DeductionPreview, error) {
	var deductions []DeductionPreview
	for ingredientID, qty := range acc.Totals() {
		ing, err := s.ingredients.GetByID(ingredientID)
		if err != nil {
			return nil, persistenceError("failed to load ingredient %s: %w", ingredientID, err)
		}
		if ing == nil {
			logger.LogWarn("Deduction references unknown ingredient %s; dropped from preview", ingredientID)
			continue
		}
		rounded := Round4(qty)
		deductions = append(deductions, DeductionPreview{
			Name:     ing.Name,
			Quantity: rounded,
			Unit:     ing.Unit,
			Display:  fmt.Sprintf("%s %s", humanize.Ftoa(rounded), ing.Unit),
		})
	}

	sort.Slice(deductions, func(i, j int) bool {
		return deductions[i].Name < deductions[j].Name
	})

	return deductions, nil
}

// Commit runs the gather phase and persists the whole batch in a single
// transaction: order rows, item rows, stock decrements, and deduction rows.
// Any failure rolls everything back and leaves the watermark untouched.
// Success advances the watermark to the window end.
func (s *Service) Commit(ctx context.Context) (*CommitResult, error) {
	logger.LogInfo("Starting POS sales sync (commit mode)")

	b, err := s.gather(ctx)
	if err != nil {
		return nil, err
	}

	if b.refCount == 0 {
		s.saveWatermark(b.end)
		return &CommitResult{Message: "No new orders found"}, nil
	}

	sb, err := s.orders.BeginSyncBatch(ctx)
	if err != nil {
		return nil, persistenceError("failed to start sync batch: %w", err)
	}
	defer sb.Rollback()

	syncedAt := s.now()
	ordersStored := 0
	deductionsLogged := 0

	for _, pending := range b.pending {
		detail := pending.detail

		orderID, err := sb.InsertOrder(data.Order{
			ToastGUID:     detail.GUID,
			OrderNumber:   detail.OrderNumber.String(),
			OpenedDate:    detail.OpenedDate,
			ClosedDate:    detail.ClosedDate,
			ModifiedDate:  detail.ModifiedDate,
			Deleted:       detail.Deleted,
			TotalAmount:   detail.TotalAmount,
			TaxAmount:     detail.TaxAmount,
			TipAmount:     detail.TipAmount,
			PaymentStatus: detail.PaymentStatus,
			Source:        detail.Source,
			RawJSON:       string(detail.Raw),
			SyncedAt:      syncedAt,
		})
		if err != nil {
			return nil, persistenceError("failed to store order %s: %w", detail.GUID, err)
		}
		ordersStored++

		for _, item := range pending.items {
			sel := item.selection
			modifiers := "[]"
			if len(sel.Modifiers) > 0 {
				modifiers = string(sel.Modifiers)
			}

			itemID, err := sb.InsertOrderItem(data.OrderItem{
				OrderID:       orderID,
				MenuItemGUID:  sel.Item.GUID,
				MenuItemName:  item.name,
				Quantity:      sel.Qty(),
				UnitPrice:     sel.UnitPrice,
				TotalPrice:    sel.TotalPrice,
				ModifiersJSON: modifiers,
			})
			if err != nil {
				return nil, persistenceError("failed to store order item for %s: %w", detail.GUID, err)
			}

			for _, component := range item.components {
				err := sb.ApplyDeduction(data.OrderDeduction{
					OrderID:          orderID,
					OrderItemID:      itemID,
					IngredientID:     component.IngredientID,
					QuantityDeducted: component.Quantity * sel.Qty(),
					Timestamp:        syncedAt,
				})
				if err != nil {
					return nil, persistenceError("failed to apply deduction for %s: %w", detail.GUID, err)
				}
				deductionsLogged++
			}
		}
	}

	if err := sb.Commit(); err != nil {
		return nil, persistenceError("failed to commit sync batch: %w", err)
	}

	s.saveWatermark(b.end)

	message := fmt.Sprintf("Successfully synced %s new orders. %s inventory deductions logged.",
		humanize.Comma(int64(ordersStored)), humanize.Comma(int64(deductionsLogged)))
	logger.LogInfo("%s", message)

	return &CommitResult{
		OrdersStored:     ordersStored,
		DeductionsLogged: deductionsLogged,
		Message:          message,
	}, nil
}

// saveWatermark advances the watermark, logging rather than failing when the
// write does not stick. The committed batch is safe either way; a stale
// watermark only means the next sync re-covers an already-deduplicated range.
func (s *Service) saveWatermark(end time.Time) {
	if err := s.watermark.Save(end); err != nil {
		logger.LogWarn("Failed to save sync watermark: %v", err)
	}
}
