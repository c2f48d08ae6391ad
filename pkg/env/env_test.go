package env

import "testing"

func TestGetFallsBack(t *testing.T) {
	t.Setenv("REPAIRDESK_TEST_VALUE", "  ")
	if got := Get("REPAIRDESK_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("REPAIRDESK_TEST_VALUE", "set")
	if got := Get("REPAIRDESK_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected set, got %q", got)
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("REPAIRDESK_TEST_FLAG", "true")
	if !GetBool("REPAIRDESK_TEST_FLAG", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("REPAIRDESK_TEST_FLAG", "nope")
	if GetBool("REPAIRDESK_TEST_FLAG", false) {
		t.Fatalf("malformed value should fall back")
	}
}
