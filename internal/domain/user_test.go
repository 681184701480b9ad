package domain

import "testing"

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"user", RoleUser},
		{"", RoleUser},
		{"superuser", RoleUser},
		{"Admin", RoleUser},
	}
	for _, tc := range cases {
		if got := NormalizeRole(tc.in); got != tc.want {
			t.Fatalf("NormalizeRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoleIsValid(t *testing.T) {
	if !RoleUser.IsValid() || !RoleAdmin.IsValid() {
		t.Fatalf("expected predefined roles to be valid")
	}
	if Role("owner").IsValid() {
		t.Fatalf("expected unknown role to be invalid")
	}
}
