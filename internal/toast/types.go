package toast

import (
	"encoding/json"
	"strings"
	"time"
)

// TimeLayout is the timestamp format the upstream orders API requires for
// window boundaries. The offset is always rendered numerically ("+0000" for
// UTC), never as "Z".
const TimeLayout = "2006-01-02T15:04:05.000-0700"

// FormatTime renders a timestamp in the upstream's required layout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseTime parses an upstream timestamp, accepting a trailing "Z" as an
// alias for "+0000".
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, NormalizeTimestamp(s))
}

// NormalizeTimestamp rewrites a trailing "Z" suffix into the numeric offset
// the layout expects.
func NormalizeTimestamp(s string) string {
	if strings.HasSuffix(s, "Z") {
		return s[:len(s)-1] + "+0000"
	}
	return s
}

// tokenResponse is the auth API's login payload.
type tokenResponse struct {
	Token struct {
		AccessToken string `json:"accessToken"`
	} `json:"token"`
}

// OrderRef is one entry of an order-list response. The upstream returns
// either bare GUID strings or objects carrying a guid field, so it
// unmarshals from both.
type OrderRef struct {
	GUID string `json:"guid"`
}

func (r *OrderRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.GUID)
	}
	var obj struct {
		GUID string `json:"guid"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.GUID = obj.GUID
	return nil
}

// orderListResponse handles the wrapped form of a list response; the bare
// array form is handled directly in the client.
type orderListResponse struct {
	Orders []OrderRef `json:"orders"`
}

// ItemRef identifies the menu item a selection was rung up against.
type ItemRef struct {
	GUID string `json:"guid"`
	Name string `json:"name"`
}

// Selection is one sold line of an order. Quantity is a pointer because the
// upstream omits it for single-unit sales.
type Selection struct {
	Item       ItemRef         `json:"item"`
	Quantity   *float64        `json:"quantity"`
	UnitPrice  float64         `json:"unitPrice"`
	TotalPrice float64         `json:"totalPrice"`
	Modifiers  json.RawMessage `json:"modifiers"`
}

// Qty returns the sold quantity, defaulting to 1 when the field was absent.
func (s Selection) Qty() float64 {
	if s.Quantity == nil {
		return 1
	}
	return *s.Quantity
}

// Check groups selections within an order.
type Check struct {
	Selections []Selection `json:"selections"`
}

// Order is a full order-detail payload. Raw holds the exact bytes the
// upstream returned; the sync engine persists them untouched.
type Order struct {
	GUID          string      `json:"guid"`
	OrderNumber   json.Number `json:"orderNumber"`
	OpenedDate    string      `json:"openedDate"`
	ClosedDate    string      `json:"closedDate"`
	ModifiedDate  string      `json:"modifiedDate"`
	Deleted       bool        `json:"deleted"`
	TotalAmount   float64     `json:"totalAmount"`
	TaxAmount     float64     `json:"taxAmount"`
	TipAmount     float64     `json:"tipAmount"`
	PaymentStatus string      `json:"paymentStatus"`
	Source        string      `json:"source"`
	Selections    []Selection `json:"selections"`
	Checks        []Check     `json:"checks"`

	Raw json.RawMessage `json:"-"`
}

// FlattenedSelections returns the order's selections, falling back to the
// per-check lists when the top-level field is empty.
func (o *Order) FlattenedSelections() []Selection {
	if len(o.Selections) > 0 {
		return o.Selections
	}
	var all []Selection
	for _, check := range o.Checks {
		all = append(all, check.Selections...)
	}
	return all
}

// MenuEntry is one sellable item in the menu catalog.
type MenuEntry struct {
	GUID string `json:"guid"`
	Name string `json:"name"`
}

// MenuGroup is a grouping level of the catalog; groups nest.
type MenuGroup struct {
	Name      string      `json:"name"`
	MenuItems []MenuEntry `json:"menuItems"`
	SubGroups []MenuGroup `json:"menuGroups"`
}

// Menu is one top-level menu of the catalog.
type Menu struct {
	Name       string      `json:"name"`
	MenuGroups []MenuGroup `json:"menuGroups"`
}

// MenuDocument is the menus API response. Raw preserves the upstream bytes
// for the passthrough endpoint.
type MenuDocument struct {
	Menus []Menu `json:"menus"`

	Raw json.RawMessage `json:"-"`
}
