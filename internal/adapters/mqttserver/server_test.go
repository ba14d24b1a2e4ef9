package mqttserver

import (
	"strings"
	"testing"
)

func TestTruncatePayload(t *testing.T) {
	short := []byte(`{"type":"pause"}`)
	if got := truncatePayload(short); got != string(short) {
		t.Fatalf("unexpected payload %q", got)
	}
	long := []byte(strings.Repeat("x", 3000))
	got := truncatePayload(long)
	if len(got) != 2048+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncated payload, got %d bytes", len(got))
	}
}

func TestBuildTLSConfig(t *testing.T) {
	cfg, err := buildTLSConfig("", "", "")
	if err != nil || cfg != nil {
		t.Fatalf("expected no tls config")
	}
	if _, err := buildTLSConfig("", "cert.pem", ""); err == nil {
		t.Fatalf("expected error for cert without key")
	}
	if _, err := buildTLSConfig("/nonexistent/ca.pem", "", ""); err == nil {
		t.Fatalf("expected error for missing ca")
	}
}
