package menu

import (
	"context"
	"net/http"

	"slawbackend/internal/data"
	"slawbackend/internal/logger"
	"slawbackend/internal/middleware"
	"slawbackend/internal/toast"
)

// Service syncs the upstream menu catalog into the local menu_items table
// and serves catalog reads.
type Service struct {
	menu   *data.MenuRepository
	client *toast.Client
	store  *toast.CredentialStore
}

func NewService(menu *data.MenuRepository, client *toast.Client, store *toast.CredentialStore) *Service {
	return &Service{menu: menu, client: client, store: store}
}

func (s *Service) authorize(ctx context.Context) (*toast.Credentials, error) {
	creds, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if err := s.store.EnsureToken(ctx, s.client, creds); err != nil {
		return nil, err
	}
	return creds, nil
}

// Sync pulls the full catalog and upserts every sellable item, walking
// nested groups. Returns the number of items stored.
func (s *Service) Sync(ctx context.Context) (int, error) {
	creds, err := s.authorize(ctx)
	if err != nil {
		return 0, err
	}

	doc, err := s.client.FetchMenus(ctx, creds.AccessToken, creds.Tenant())
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range doc.Menus {
		for _, group := range m.MenuGroups {
			n, err := s.syncGroup(m.Name, group.Name, group)
			if err != nil {
				return count, err
			}
			count += n
		}
	}

	logger.LogInfo("Menu sync stored %d items", count)
	return count, nil
}

func (s *Service) syncGroup(menuName, groupPath string, group toast.MenuGroup) (int, error) {
	count := 0
	for _, entry := range group.MenuItems {
		if entry.GUID == "" {
			continue
		}
		err := s.menu.Upsert(data.MenuItem{
			Menu:      menuName,
			GroupPath: groupPath,
			ItemName:  entry.Name,
			ItemGUID:  entry.GUID,
		})
		if err != nil {
			return count, err
		}
		count++
	}

	for _, sub := range group.SubGroups {
		n, err := s.syncGroup(menuName, groupPath+" / "+sub.Name, sub)
		if err != nil {
			return count, err
		}
		count += n
	}

	return count, nil
}

// SyncHandler handles POST /api/menu/sync.
func (s *Service) SyncHandler(w http.ResponseWriter, r *http.Request) {
	count, err := s.Sync(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadGateway, "menu_sync_failed",
			"Failed to sync menu from upstream", err.Error())
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"message":      "Menu synced",
		"items_synced": count,
	})
}

// localMenuItem matches the dashboard's catalog row shape.
type localMenuItem struct {
	GUID  string `json:"guid"`
	Name  string `json:"name"`
	Menu  string `json:"menu"`
	Group string `json:"group"`
}

// LocalMenuHandler handles GET /api/menu/local.
func (s *Service) LocalMenuHandler(w http.ResponseWriter, r *http.Request) {
	items, err := s.menu.GetAll()
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "database_error",
			"Failed to load local menu", err.Error())
		return
	}

	menuItems := make([]localMenuItem, 0, len(items))
	for _, item := range items {
		menuItems = append(menuItems, localMenuItem{
			GUID:  item.ItemGUID,
			Name:  item.ItemName,
			Menu:  item.Menu,
			Group: item.GroupPath,
		})
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"menu_items": menuItems,
	})
}

// ProxyHandler handles GET /api/toast/menu, passing the upstream catalog
// through untouched.
func (s *Service) ProxyHandler(w http.ResponseWriter, r *http.Request) {
	creds, err := s.authorize(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "config_error",
			"Upstream credentials not available", err.Error())
		return
	}

	doc, err := s.client.FetchMenus(r.Context(), creds.AccessToken, creds.Tenant())
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadGateway, "menu_fetch_failed",
			"Failed to fetch menu from upstream", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Raw)
}
