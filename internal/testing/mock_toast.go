// mock_toast.go - mock upstream POS API with failure simulation
package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"slawbackend/internal/toast"
)

// MockToastService provides a mock POS API covering auth, order listing,
// order detail, and the menu catalog.
type MockToastService struct {
	Server *httptest.Server
	mu     sync.RWMutex

	orders   map[string]MockOrder
	orderSeq []string
	menuDoc  interface{}

	// Configuration for failure simulation
	ShouldFailAuth   bool
	ShouldFailFetch  bool
	FailDetailFor    map[string]bool
	RefsAsStrings    bool
	SimulateNetDelay time.Duration

	// Counters for tracking
	AuthAttempts   int
	FetchAttempts  int
	DetailAttempts int
	FetchedWindows [][2]string
	IssuedTokens   []string
}

// MockSelection is one sold line of a mock order.
type MockSelection struct {
	ItemGUID     string
	ItemName     string
	Quantity     float64
	OmitQuantity bool
	OmitItemGUID bool
	UnitPrice    float64
	TotalPrice   float64
}

// MockOrder is a canned order the mock serves. UseChecks nests the
// selections under checks instead of the top-level field.
type MockOrder struct {
	GUID        string
	OrderNumber string
	OpenedDate  string
	ClosedDate  string
	TotalAmount float64
	TaxAmount   float64
	TipAmount   float64
	Selections  []MockSelection
	UseChecks   bool
}

// NewMockToastService creates and starts the mock server.
func NewMockToastService() *MockToastService {
	mock := &MockToastService{
		orders:        make(map[string]MockOrder),
		FailDetailFor: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/authentication/login", mock.handleLogin)
	mux.HandleFunc("/orders", mock.handleOrderList)
	mux.HandleFunc("/orders/", mock.handleOrderDetail)
	mux.HandleFunc("/menus", mock.handleMenus)

	mock.Server = httptest.NewServer(mux)
	return mock
}

// Close shuts down the mock server.
func (m *MockToastService) Close() {
	m.Server.Close()
}

// APIBase returns the mock server's base URL. The real client's orders,
// auth, and menus bases all point here in tests.
func (m *MockToastService) APIBase() string {
	return m.Server.URL
}

// AddOrder registers a canned order, generating a GUID when none is set.
func (m *MockToastService) AddOrder(order MockOrder) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.GUID == "" {
		order.GUID = uuid.NewString()
	}
	if _, exists := m.orders[order.GUID]; !exists {
		m.orderSeq = append(m.orderSeq, order.GUID)
	}
	m.orders[order.GUID] = order
	return order.GUID
}

// SetMenus installs the document returned by the menus endpoint.
func (m *MockToastService) SetMenus(doc interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menuDoc = doc
}

// SetFailureMode toggles auth and fetch failures.
func (m *MockToastService) SetFailureMode(authFail, fetchFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldFailAuth = authFail
	m.ShouldFailFetch = fetchFail
}

// Reset clears canned data, failure switches, and counters.
func (m *MockToastService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders = make(map[string]MockOrder)
	m.orderSeq = nil
	m.menuDoc = nil
	m.ShouldFailAuth = false
	m.ShouldFailFetch = false
	m.FailDetailFor = make(map[string]bool)
	m.RefsAsStrings = false
	m.AuthAttempts = 0
	m.FetchAttempts = 0
	m.DetailAttempts = 0
	m.FetchedWindows = nil
	m.IssuedTokens = nil
}

func (m *MockToastService) delay() {
	m.mu.RLock()
	d := m.SimulateNetDelay
	m.mu.RUnlock()
	if d > 0 {
		time.Sleep(d)
	}
}

func (m *MockToastService) handleLogin(w http.ResponseWriter, r *http.Request) {
	m.delay()

	m.mu.Lock()
	m.AuthAttempts++
	shouldFail := m.ShouldFailAuth
	m.mu.Unlock()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if shouldFail {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  401,
			"message": "Authentication failed",
		})
		return
	}

	var payload struct {
		ClientID     string `json:"clientId"`
		ClientSecret string `json:"clientSecret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if payload.ClientID == "" || payload.ClientSecret == "" {
		http.Error(w, "Missing credentials", http.StatusBadRequest)
		return
	}

	token := fmt.Sprintf("mock-token-%d", time.Now().UnixNano())
	m.mu.Lock()
	m.IssuedTokens = append(m.IssuedTokens, token)
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": map[string]interface{}{
			"tokenType":   "Bearer",
			"accessToken": token,
		},
	})
}

func (m *MockToastService) handleOrderList(w http.ResponseWriter, r *http.Request) {
	m.delay()

	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")

	m.mu.Lock()
	m.FetchAttempts++
	m.FetchedWindows = append(m.FetchedWindows, [2]string{startDate, endDate})
	shouldFail := m.ShouldFailFetch
	asStrings := m.RefsAsStrings
	seq := m.ordersInWindow(startDate, endDate)
	m.mu.Unlock()

	if shouldFail {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  401,
			"message": "Unauthorized",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if asStrings {
		json.NewEncoder(w).Encode(seq)
		return
	}

	refs := make([]map[string]string, 0, len(seq))
	for _, guid := range seq {
		refs = append(refs, map[string]string{"guid": guid})
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"orders": refs})
}

// ordersInWindow filters canned orders to those closed within [start, end),
// matching the real list endpoint. Malformed window params return everything.
// Callers must hold m.mu.
func (m *MockToastService) ordersInWindow(startDate, endDate string) []string {
	start, serr := toast.ParseTime(startDate)
	end, eerr := toast.ParseTime(endDate)
	if serr != nil || eerr != nil {
		return append([]string(nil), m.orderSeq...)
	}

	var seq []string
	for _, guid := range m.orderSeq {
		closed, err := toast.ParseTime(m.orders[guid].ClosedDate)
		if err != nil {
			continue
		}
		if !closed.Before(start) && closed.Before(end) {
			seq = append(seq, guid)
		}
	}
	return seq
}

func (m *MockToastService) handleOrderDetail(w http.ResponseWriter, r *http.Request) {
	m.delay()

	guid := strings.TrimPrefix(r.URL.Path, "/orders/")

	m.mu.Lock()
	m.DetailAttempts++
	shouldFail := m.FailDetailFor[guid]
	order, exists := m.orders[guid]
	m.mu.Unlock()

	if shouldFail {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(buildOrderPayload(order))
}

func buildOrderPayload(order MockOrder) map[string]interface{} {
	selections := make([]map[string]interface{}, 0, len(order.Selections))
	for _, sel := range order.Selections {
		payload := map[string]interface{}{
			"unitPrice":  sel.UnitPrice,
			"totalPrice": sel.TotalPrice,
		}
		if !sel.OmitItemGUID {
			payload["item"] = map[string]interface{}{
				"guid": sel.ItemGUID,
				"name": sel.ItemName,
			}
		} else {
			payload["item"] = map[string]interface{}{"name": sel.ItemName}
		}
		if !sel.OmitQuantity {
			payload["quantity"] = sel.Quantity
		}
		selections = append(selections, payload)
	}

	payload := map[string]interface{}{
		"guid":          order.GUID,
		"orderNumber":   order.OrderNumber,
		"openedDate":    order.OpenedDate,
		"closedDate":    order.ClosedDate,
		"modifiedDate":  order.ClosedDate,
		"deleted":       false,
		"totalAmount":   order.TotalAmount,
		"taxAmount":     order.TaxAmount,
		"tipAmount":     order.TipAmount,
		"paymentStatus": "PAID",
		"source":        "In Store",
	}

	if order.UseChecks {
		payload["checks"] = []map[string]interface{}{
			{"selections": selections},
		}
	} else {
		payload["selections"] = selections
	}

	return payload
}

func (m *MockToastService) handleMenus(w http.ResponseWriter, r *http.Request) {
	m.delay()

	m.mu.RLock()
	doc := m.menuDoc
	m.mu.RUnlock()

	if doc == nil {
		doc = map[string]interface{}{"menus": []interface{}{}}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}
