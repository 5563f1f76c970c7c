package toast

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"slawbackend/internal/logger"
)

// Credentials holds the upstream API tenant identity and the cached bearer
// token. The token is mutable state; everything else is operator-provisioned.
type Credentials struct {
	ClientID            string
	ClientSecret        string
	RestaurantGUID      string
	ManagementGroupGUID string
	AccessToken         string
}

// Tenant returns the restaurant GUID sent as the external-ID header, falling
// back to the management group GUID when no restaurant GUID is provisioned.
func (c *Credentials) Tenant() string {
	if c.RestaurantGUID != "" {
		return c.RestaurantGUID
	}
	return c.ManagementGroupGUID
}

// CredentialStore reads and rewrites the KEY=VALUE credentials file. Rewrites
// go through a temp file and rename so a crash mid-write never truncates the
// live file.
type CredentialStore struct {
	path string
}

func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Load parses the credentials file. A missing file returns empty credentials,
// not an error; the caller decides which fields are mandatory.
func (s *CredentialStore) Load() (*Credentials, error) {
	creds := &Credentials{}

	file, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return creds, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open credentials file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch key {
		case "CLIENT_ID":
			creds.ClientID = value
		case "CLIENT_SECRET":
			creds.ClientSecret = value
		case "RESTAURANT_GUID":
			creds.RestaurantGUID = value
		case "MANAGEMENT_GROUP_GUID":
			creds.ManagementGroupGUID = value
		case "ACCESS_TOKEN":
			creds.AccessToken = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	return creds, nil
}

// Save writes the credentials atomically. Empty fields are omitted so the
// file stays hand-editable.
func (s *CredentialStore) Save(creds *Credentials) error {
	var b strings.Builder
	for _, pair := range []struct{ key, value string }{
		{"CLIENT_ID", creds.ClientID},
		{"CLIENT_SECRET", creds.ClientSecret},
		{"RESTAURANT_GUID", creds.RestaurantGUID},
		{"MANAGEMENT_GROUP_GUID", creds.ManagementGroupGUID},
		{"ACCESS_TOKEN", creds.AccessToken},
	} {
		if pair.value != "" {
			fmt.Fprintf(&b, "%s=%s\n", pair.key, pair.value)
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".toast_credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temp credentials file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp credentials file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}

// Refresh logs in with the stored client id/secret, updates the token in
// memory, and persists it before returning. Persisting first means a crash
// after refresh never loses a token the upstream already issued.
func (s *CredentialStore) Refresh(ctx context.Context, client *Client, creds *Credentials) error {
	logger.LogInfo("Refreshing upstream access token")

	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("cannot refresh token: missing CLIENT_ID or CLIENT_SECRET")
	}

	token, err := client.Login(ctx, creds.ClientID, creds.ClientSecret)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	creds.AccessToken = token
	if err := s.Save(creds); err != nil {
		return fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	logger.LogInfo("Token refreshed and saved to %s", s.path)
	return nil
}

// EnsureToken refreshes only when no token is cached.
func (s *CredentialStore) EnsureToken(ctx context.Context, client *Client, creds *Credentials) error {
	if creds.AccessToken != "" {
		return nil
	}
	return s.Refresh(ctx, client, creds)
}
