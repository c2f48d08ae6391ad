package enums

import "testing"

func TestParseRole(t *testing.T) {
	for _, role := range Roles() {
		got, err := ParseRole(string(role))
		if err != nil || got != role {
			t.Fatalf("expected %s to parse, got %v %v", role, got, err)
		}
	}
	if _, err := ParseRole("admin"); err == nil {
		t.Fatalf("expected admin to be rejected")
	}
}

func TestRepairRequestStatusTerminal(t *testing.T) {
	terminal := map[RepairRequestStatus]bool{
		RepairRequestStatusCompleted: true,
		RepairRequestStatusRejected:  true,
	}
	for _, status := range validRepairRequestStatuses {
		if status.IsTerminal() != terminal[status] {
			t.Fatalf("unexpected terminal flag for %s", status)
		}
	}
	if RepairRequestStatus("archived").IsValid() {
		t.Fatalf("unknown status should be invalid")
	}
}

func TestParseIssueAndTokenTypes(t *testing.T) {
	if v, err := ParseIssueType("hardware"); err != nil || v != IssueTypeHardware {
		t.Fatalf("hardware should parse")
	}
	if _, err := ParseIssueType("firmware"); err == nil {
		t.Fatalf("firmware should be rejected")
	}
	if v, err := ParseTokenType("one_time"); err != nil || v != TokenTypeOneTime {
		t.Fatalf("one_time should parse")
	}
	if _, err := ParseNotificationAction("delete"); err == nil {
		t.Fatalf("delete should be rejected")
	}
}
