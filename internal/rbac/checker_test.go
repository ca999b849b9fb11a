package rbac_test

import (
	"testing"

	"github.com/learnhub-io/learnhub-portal/internal/rbac"
)

func TestDefaultPolicy(t *testing.T) {
	c := rbac.NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "quiz:take", true},
		{"student", "quiz:manage", false},
		{"student", "attempt:grade", false},
		{"student", "store:order", true},
		{"mentor", "attempt:grade", true},
		{"mentor", "resource:manage", true},
		{"mentor", "store:order", false},
		{"admin", "anything:at-all", true},
		{"", "quiz:take", false},
		{"unknown", "quiz:take", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Fatalf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestWildcardPrefix(t *testing.T) {
	c := rbac.NewChecker(map[string][]string{
		"auditor": {"attempt:*"},
	})
	if !c.Has("auditor", "attempt:view-all") {
		t.Fatal("prefix wildcard should grant attempt:view-all")
	}
	if c.Has("auditor", "quiz:manage") {
		t.Fatal("prefix wildcard leaked outside its prefix")
	}
	if !c.Any("auditor", "quiz:manage", "attempt:grade") {
		t.Fatal("Any should find the matching permission")
	}
}
