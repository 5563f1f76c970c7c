package toast

import (
	"encoding/json"
	"testing"
	"time"
)

func TestOrderRefUnmarshalsBothForms(t *testing.T) {
	var refs []OrderRef
	payload := `[{"guid":"abc-123"}, "def-456"]`
	if err := json.Unmarshal([]byte(payload), &refs); err != nil {
		t.Fatalf("Failed to unmarshal order refs: %v", err)
	}

	if len(refs) != 2 {
		t.Fatalf("Expected 2 refs, got %d", len(refs))
	}
	if refs[0].GUID != "abc-123" {
		t.Errorf("Expected object ref guid abc-123, got %q", refs[0].GUID)
	}
	if refs[1].GUID != "def-456" {
		t.Errorf("Expected string ref guid def-456, got %q", refs[1].GUID)
	}
}

func TestSelectionQtyDefaultsToOne(t *testing.T) {
	var sel Selection
	if err := json.Unmarshal([]byte(`{"item":{"guid":"g","name":"n"}}`), &sel); err != nil {
		t.Fatalf("Failed to unmarshal selection: %v", err)
	}
	if sel.Qty() != 1 {
		t.Errorf("Expected default quantity 1, got %v", sel.Qty())
	}

	if err := json.Unmarshal([]byte(`{"quantity":2.5}`), &sel); err != nil {
		t.Fatalf("Failed to unmarshal selection: %v", err)
	}
	if sel.Qty() != 2.5 {
		t.Errorf("Expected quantity 2.5, got %v", sel.Qty())
	}

	if err := json.Unmarshal([]byte(`{"quantity":0}`), &sel); err != nil {
		t.Fatalf("Failed to unmarshal selection: %v", err)
	}
	if sel.Qty() != 0 {
		t.Errorf("Expected explicit zero quantity to stay 0, got %v", sel.Qty())
	}
}

func TestFlattenedSelectionsFallsBackToChecks(t *testing.T) {
	payload := `{
		"guid": "order-1",
		"checks": [
			{"selections": [{"item":{"guid":"a"}}, {"item":{"guid":"b"}}]},
			{"selections": [{"item":{"guid":"c"}}]}
		]
	}`
	var order Order
	if err := json.Unmarshal([]byte(payload), &order); err != nil {
		t.Fatalf("Failed to unmarshal order: %v", err)
	}

	flat := order.FlattenedSelections()
	if len(flat) != 3 {
		t.Fatalf("Expected 3 selections from checks, got %d", len(flat))
	}
	if flat[2].Item.GUID != "c" {
		t.Errorf("Expected last selection guid c, got %q", flat[2].Item.GUID)
	}
}

func TestFlattenedSelectionsPrefersTopLevel(t *testing.T) {
	order := Order{
		Selections: []Selection{{Item: ItemRef{GUID: "top"}}},
		Checks:     []Check{{Selections: []Selection{{Item: ItemRef{GUID: "nested"}}}}},
	}

	flat := order.FlattenedSelections()
	if len(flat) != 1 || flat[0].Item.GUID != "top" {
		t.Errorf("Expected only the top-level selection, got %+v", flat)
	}
}

func TestOrderNumberAcceptsStringAndNumber(t *testing.T) {
	var fromString, fromNumber Order
	if err := json.Unmarshal([]byte(`{"orderNumber":"101"}`), &fromString); err != nil {
		t.Fatalf("Failed to unmarshal string order number: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"orderNumber":101}`), &fromNumber); err != nil {
		t.Fatalf("Failed to unmarshal numeric order number: %v", err)
	}

	if fromString.OrderNumber.String() != "101" || fromNumber.OrderNumber.String() != "101" {
		t.Errorf("Expected both forms to read as 101, got %q and %q",
			fromString.OrderNumber.String(), fromNumber.OrderNumber.String())
	}
}

func TestParseTimeAcceptsZuluSuffix(t *testing.T) {
	got, err := ParseTime("2026-03-14T11:30:00.000Z")
	if err != nil {
		t.Fatalf("Failed to parse Z-suffixed timestamp: %v", err)
	}
	want := time.Date(2026, 3, 14, 11, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestFormatTimeUsesNumericOffset(t *testing.T) {
	got := FormatTime(time.Date(2026, 3, 14, 11, 30, 0, 0, time.UTC))
	if got != "2026-03-14T11:30:00.000+0000" {
		t.Errorf("Expected numeric UTC offset, got %q", got)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	original := time.Date(2026, 3, 14, 23, 59, 59, 0, time.UTC)
	parsed, err := ParseTime(FormatTime(original))
	if err != nil {
		t.Fatalf("Round trip failed: %v", err)
	}
	if !parsed.Equal(original) {
		t.Errorf("Expected %v, got %v", original, parsed)
	}
}

func TestMenuDocumentParsesNestedGroups(t *testing.T) {
	payload := `{
		"menus": [{
			"name": "Mains",
			"menuGroups": [{
				"name": "Burgers",
				"menuItems": [{"guid":"g1","name":"Slawburger"}],
				"menuGroups": [{
					"name": "Specials",
					"menuItems": [{"guid":"g2","name":"Double"}]
				}]
			}]
		}]
	}`
	var doc MenuDocument
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		t.Fatalf("Failed to unmarshal menu document: %v", err)
	}

	if len(doc.Menus) != 1 || len(doc.Menus[0].MenuGroups) != 1 {
		t.Fatalf("Unexpected document shape: %+v", doc)
	}
	group := doc.Menus[0].MenuGroups[0]
	if len(group.MenuItems) != 1 || group.MenuItems[0].GUID != "g1" {
		t.Errorf("Unexpected group items: %+v", group.MenuItems)
	}
	if len(group.SubGroups) != 1 || group.SubGroups[0].MenuItems[0].GUID != "g2" {
		t.Errorf("Unexpected nested group: %+v", group.SubGroups)
	}
}
