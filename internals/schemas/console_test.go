package schemas

import "testing"

func TestTokenSchemaTrimsAndRequires(t *testing.T) {
	req := TokenRequest{Token: "  123:abc  "}
	if issues := TokenSchema.Validate(&req); len(issues) > 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if req.Token != "123:abc" {
		t.Fatalf("expected trimmed token, got %q", req.Token)
	}

	empty := TokenRequest{Token: "   "}
	if issues := TokenSchema.Validate(&empty); len(issues) == 0 {
		t.Fatalf("expected whitespace-only token to fail")
	}
}

func TestWebhookSetSchema(t *testing.T) {
	req := WebhookSetRequest{URL: " https://example.com/hook "}
	if issues := WebhookSetSchema.Validate(&req); len(issues) > 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if req.URL != "https://example.com/hook" {
		t.Fatalf("expected trimmed url, got %q", req.URL)
	}

	missing := WebhookSetRequest{}
	if issues := WebhookSetSchema.Validate(&missing); len(issues) == 0 {
		t.Fatalf("expected missing url to fail")
	}
}

func TestSendMessageSchema(t *testing.T) {
	req := SendMessageRequest{ChatID: " -100123 ", Text: " hello "}
	if issues := SendMessageSchema.Validate(&req); len(issues) > 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	id, err := req.ChatIDValue()
	if err != nil || id != -100123 {
		t.Fatalf("expected chat id -100123, got %d err=%v", id, err)
	}
	if req.Text != "hello" {
		t.Fatalf("expected trimmed text, got %q", req.Text)
	}

	for _, bad := range []SendMessageRequest{
		{ChatID: "", Text: "hi"},
		{ChatID: "42", Text: "  "},
		{ChatID: "@channel", Text: "hi"},
	} {
		bad := bad
		if issues := SendMessageSchema.Validate(&bad); len(issues) == 0 {
			t.Fatalf("expected %#v to fail validation", bad)
		}
	}
}
