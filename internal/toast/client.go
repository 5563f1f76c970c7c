package toast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"slawbackend/internal/logger"
)

const (
	fetchWindow  = time.Hour
	pageSize     = 100
	userAccess   = "TOAST_MACHINE_CLIENT"
	requestLimit = 30 * time.Second
)

// Client is a typed upstream POS API client. Base URLs are injected so tests
// can point every endpoint at a local mock server.
type Client struct {
	ordersBase string
	authBase   string
	menusBase  string
	httpClient *http.Client
}

func NewClient(ordersBase, authBase, menusBase string) *Client {
	return &Client{
		ordersBase: ordersBase,
		authBase:   authBase,
		menusBase:  menusBase,
		httpClient: &http.Client{Timeout: requestLimit},
	}
}

// Login exchanges the client id/secret for a bearer token.
func (c *Client) Login(ctx context.Context, clientID, clientSecret string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"clientId":       clientID,
		"clientSecret":   clientSecret,
		"userAccessType": userAccess,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login payload: %w", err)
	}

	loginURL := c.authBase + "/authentication/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.LogError("Upstream login returned status %d: %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("login returned status %d", resp.StatusCode)
	}

	var result tokenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse login response: %w", err)
	}
	if result.Token.AccessToken == "" {
		return "", fmt.Errorf("login response contained no access token")
	}

	return result.Token.AccessToken, nil
}

// FetchOrders lists order references in [start, end), splitting the range
// into hour-long sub-windows. Any sub-window failure fails the whole call;
// callers can rely on a nil error meaning the range was covered completely.
func (c *Client) FetchOrders(ctx context.Context, token, restaurantGUID string, start, end time.Time) ([]OrderRef, error) {
	refs := []OrderRef{}

	for windowStart := start; windowStart.Before(end); {
		windowEnd := windowStart.Add(fetchWindow)
		if windowEnd.After(end) {
			windowEnd = end
		}

		logger.LogInfo("Fetching orders window %s -> %s", FormatTime(windowStart), FormatTime(windowEnd))

		windowRefs, err := c.fetchOrdersWindow(ctx, token, restaurantGUID, windowStart, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("order fetch failed for window starting %s: %w", FormatTime(windowStart), err)
		}
		refs = append(refs, windowRefs...)

		windowStart = windowEnd
	}

	return refs, nil
}

func (c *Client) fetchOrdersWindow(ctx context.Context, token, restaurantGUID string, start, end time.Time) ([]OrderRef, error) {
	params := url.Values{}
	params.Set("startDate", FormatTime(start))
	params.Set("endDate", FormatTime(end))
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))

	body, err := c.get(ctx, c.ordersBase+"/orders?"+params.Encode(), token, restaurantGUID)
	if err != nil {
		return nil, err
	}

	// The list endpoint returns either a bare array or an object wrapping it.
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var refs []OrderRef
		if err := json.Unmarshal(body, &refs); err != nil {
			return nil, fmt.Errorf("failed to parse order list: %w", err)
		}
		return refs, nil
	}

	var wrapped orderListResponse
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse order list: %w", err)
	}
	return wrapped.Orders, nil
}

// FetchOrderDetail retrieves one full order, keeping the raw payload bytes.
func (c *Client) FetchOrderDetail(ctx context.Context, token, restaurantGUID, orderGUID string) (*Order, error) {
	body, err := c.get(ctx, c.ordersBase+"/orders/"+orderGUID, token, restaurantGUID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order %s: %w", orderGUID, err)
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to parse order %s: %w", orderGUID, err)
	}
	order.Raw = body

	return &order, nil
}

// FetchMenus retrieves the full menu catalog.
func (c *Client) FetchMenus(ctx context.Context, token, restaurantGUID string) (*MenuDocument, error) {
	body, err := c.get(ctx, c.menusBase+"/menus", token, restaurantGUID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch menus: %w", err)
	}

	var doc MenuDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse menu document: %w", err)
	}
	doc.Raw = body

	return &doc, nil
}

func (c *Client) get(ctx context.Context, rawURL, token, restaurantGUID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Toast-Restaurant-External-ID", restaurantGUID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.LogError("Upstream API error (HTTP %d): %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	return body, nil
}
