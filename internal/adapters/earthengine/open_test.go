package earthengine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	t.Run("no credentials", func(t *testing.T) {
		if _, err := Open(Settings{Project: "demo"}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("access token", func(t *testing.T) {
		e, err := Open(Settings{Project: "demo", AccessToken: "tok"})
		if err != nil {
			t.Fatal(err)
		}
		c := e.c.(*Client)
		if c.project != "demo" || c.baseURL != DefaultBaseURL {
			t.Errorf("unexpected client %+v", c)
		}
		if _, ok := c.tokens.(StaticToken); !ok {
			t.Errorf("expected static token, got %T", c.tokens)
		}
	})

	t.Run("token without project", func(t *testing.T) {
		if _, err := Open(Settings{AccessToken: "tok"}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("credentials file wins and supplies project", func(t *testing.T) {
		sa, _ := testAccount(t, DefaultTokenURI)
		sa.ProjectID = "from-key"
		raw, _ := json.Marshal(sa)
		path := filepath.Join(t.TempDir(), "key.json")
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			t.Fatal(err)
		}

		e, err := Open(Settings{AccessToken: "ignored", CredentialsFile: path})
		if err != nil {
			t.Fatal(err)
		}
		c := e.c.(*Client)
		if c.project != "from-key" {
			t.Errorf("expected project from key file, got %q", c.project)
		}
		if _, ok := c.tokens.(*ServiceAccountSource); !ok {
			t.Errorf("expected service account source, got %T", c.tokens)
		}
	})
}
