package models

import "testing"

func TestSubCategoryStatuses(t *testing.T) {
	want := []string{"Not Started", "In Progress", "Can't Optimise", "Optimised"}
	if len(SubCategoryStatuses) != len(want) {
		t.Fatalf("got %v, want %v", SubCategoryStatuses, want)
	}
	for i, s := range want {
		if SubCategoryStatuses[i] != s {
			t.Fatalf("status %d = %q, want %q", i, SubCategoryStatuses[i], s)
		}
	}
	if OverallCantOptimise != "Can't Optimise" {
		t.Fatalf("OverallCantOptimise = %q", OverallCantOptimise)
	}
}

func TestIsTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		StatusComplete:      true,
		StatusNA:            true,
		StatusInProgress:    false,
		StatusWaitingOnInfo: false,
		"Chasing bank":      false,
	} {
		if got := IsTerminal(status); got != want {
			t.Fatalf("IsTerminal(%q) = %v, want %v", status, got, want)
		}
	}
}
