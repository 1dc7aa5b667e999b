package env

import "testing"

func TestEnvDefaults(t *testing.T) {
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.PORT != 57880 {
		t.Fatalf("expected default port 57880, got %d", got.PORT)
	}
	if got.LISTEN_ADDR != "localhost:57880" {
		t.Fatalf("expected listen addr localhost:57880, got %s", got.LISTEN_ADDR)
	}
	if got.BASE_URL != "http://localhost:57880" {
		t.Fatalf("expected base url http://localhost:57880, got %s", got.BASE_URL)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOTDESK_PORT", "1234")
	t.Setenv("BOTDESK_TOKEN", "  123:abc  ")
	t.Setenv("BOTDESK_DATA_DIR", "/tmp/botdesk")
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.PORT != 1234 {
		t.Fatalf("expected port 1234, got %d", got.PORT)
	}
	if got.BASE_URL != "http://localhost:1234" {
		t.Fatalf("expected base url http://localhost:1234, got %s", got.BASE_URL)
	}
	if got.TOKEN != "123:abc" {
		t.Fatalf("expected trimmed token, got %q", got.TOKEN)
	}
	if got.DATA_DIR != "/tmp/botdesk" {
		t.Fatalf("expected data dir override, got %q", got.DATA_DIR)
	}
}

func TestLoadIsNotCached(t *testing.T) {
	t.Setenv("BOTDESK_TOKEN", "first")
	first, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Setenv("BOTDESK_TOKEN", "second")
	second, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first.TOKEN != "first" || second.TOKEN != "second" {
		t.Fatalf("expected fresh values, got %q and %q", first.TOKEN, second.TOKEN)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("BOTDESK_PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}
