package testfixtures

import "testing"

func TestUserIDsAreSequential(t *testing.T) {
	gen := NewUserIDs("")

	if first := gen.Next(); first != "user-001" {
		t.Fatalf("unexpected first identifier %q", first)
	}
	ids := gen.Take(2)
	if len(ids) != 2 || ids[0] != "user-002" || ids[1] != "user-003" {
		t.Fatalf("unexpected identifiers %v", ids)
	}
}
