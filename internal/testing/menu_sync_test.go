// menu_sync_test.go - menu catalog sync against the mock upstream
package testing

import (
	"context"
	"testing"

	"slawbackend/internal/menu"
)

func TestMenuSyncFlattensNestedGroups(t *testing.T) {
	ts := NewTestSuite(t)
	svc := menu.NewService(ts.Menu, ts.Client, ts.Creds)

	ts.Mock.SetMenus(map[string]interface{}{
		"menus": []map[string]interface{}{{
			"name": "Mains",
			"menuGroups": []map[string]interface{}{{
				"name": "Burgers",
				"menuItems": []map[string]interface{}{
					{"guid": "g1", "name": "Slawburger"},
					{"guid": "", "name": "Placeholder"},
				},
				"menuGroups": []map[string]interface{}{{
					"name": "Specials",
					"menuItems": []map[string]interface{}{
						{"guid": "g2", "name": "Double Slawburger"},
					},
				}},
			}},
		}},
	})

	count, err := svc.Sync(context.Background())
	AssertNoError(t, err)

	// The placeholder without a guid is skipped.
	if count != 2 {
		t.Errorf("Expected 2 items synced, got %d", count)
	}

	items, err := ts.Menu.GetAll()
	AssertNoError(t, err)
	byGUID := make(map[string]string)
	paths := make(map[string]string)
	for _, item := range items {
		byGUID[item.ItemGUID] = item.ItemName
		paths[item.ItemGUID] = item.GroupPath
	}

	if byGUID["g1"] != "Slawburger" {
		t.Errorf("Expected g1 stored as Slawburger, got %q", byGUID["g1"])
	}
	if paths["g2"] != "Burgers / Specials" {
		t.Errorf("Expected nested group path, got %q", paths["g2"])
	}
}

func TestMenuSyncIsRerunnable(t *testing.T) {
	ts := NewTestSuite(t)
	svc := menu.NewService(ts.Menu, ts.Client, ts.Creds)

	doc := map[string]interface{}{
		"menus": []map[string]interface{}{{
			"name": "Mains",
			"menuGroups": []map[string]interface{}{{
				"name": "Burgers",
				"menuItems": []map[string]interface{}{
					{"guid": "g1", "name": "Slawburger"},
				},
			}},
		}},
	}
	ts.Mock.SetMenus(doc)

	_, err := svc.Sync(context.Background())
	AssertNoError(t, err)

	// Renamed upstream: re-sync must update in place, not duplicate.
	doc["menus"].([]map[string]interface{})[0]["menuGroups"].([]map[string]interface{})[0]["menuItems"] =
		[]map[string]interface{}{{"guid": "g1", "name": "Slawburger Deluxe"}}
	ts.Mock.SetMenus(doc)

	_, err = svc.Sync(context.Background())
	AssertNoError(t, err)

	items, err := ts.Menu.GetAll()
	AssertNoError(t, err)
	if len(items) != 1 {
		t.Fatalf("Expected 1 catalog row after re-sync, got %d", len(items))
	}
	if items[0].ItemName != "Slawburger Deluxe" {
		t.Errorf("Expected renamed item, got %q", items[0].ItemName)
	}
}
