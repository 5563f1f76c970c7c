package toast

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCredentialStoreMissingFileIsEmpty(t *testing.T) {
	store := NewCredentialStore(filepath.Join(t.TempDir(), "toast_credentials.txt"))

	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Expected missing file to load cleanly, got %v", err)
	}
	if *creds != (Credentials{}) {
		t.Errorf("Expected empty credentials, got %+v", creds)
	}
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	store := NewCredentialStore(filepath.Join(t.TempDir(), "toast_credentials.txt"))

	saved := &Credentials{
		ClientID:       "id-1",
		ClientSecret:   "secret-1",
		RestaurantGUID: "rest-1",
		AccessToken:    "tok-1",
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Failed to save credentials: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load credentials: %v", err)
	}
	if *loaded != *saved {
		t.Errorf("Round trip mismatch: saved %+v, loaded %+v", saved, loaded)
	}
}

func TestCredentialStoreOmitsEmptyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toast_credentials.txt")
	store := NewCredentialStore(path)

	if err := store.Save(&Credentials{ClientID: "id-1"}); err != nil {
		t.Fatalf("Failed to save credentials: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read credentials file: %v", err)
	}
	if strings.Contains(string(content), "ACCESS_TOKEN") {
		t.Errorf("Empty token was written to file: %q", string(content))
	}
	if !strings.Contains(string(content), "CLIENT_ID=id-1") {
		t.Errorf("Expected CLIENT_ID line, got %q", string(content))
	}
}

func TestCredentialStoreIgnoresMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toast_credentials.txt")
	content := "# provisioning notes\nCLIENT_ID=id-1\nnot a pair\nACCESS_TOKEN=tok-1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write credentials file: %v", err)
	}

	creds, err := NewCredentialStore(path).Load()
	if err != nil {
		t.Fatalf("Failed to load credentials: %v", err)
	}
	if creds.ClientID != "id-1" || creds.AccessToken != "tok-1" {
		t.Errorf("Unexpected credentials: %+v", creds)
	}
}

func TestCredentialStoreRewriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewCredentialStore(filepath.Join(dir, "toast_credentials.txt"))

	if err := store.Save(&Credentials{ClientID: "a"}); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := store.Save(&Credentials{ClientID: "b"}); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the credentials file, found %d entries", len(entries))
	}

	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load credentials: %v", err)
	}
	if creds.ClientID != "b" {
		t.Errorf("Expected rewritten value b, got %q", creds.ClientID)
	}
}

func TestTenantFallsBackToManagementGroup(t *testing.T) {
	creds := &Credentials{ManagementGroupGUID: "mg-1"}
	if got := creds.Tenant(); got != "mg-1" {
		t.Errorf("Expected management group fallback, got %q", got)
	}

	creds.RestaurantGUID = "rest-1"
	if got := creds.Tenant(); got != "rest-1" {
		t.Errorf("Expected restaurant guid to win, got %q", got)
	}
}
