package models

import "testing"

func TestSetAndCheckPassword(t *testing.T) {
	u := User{Username: "alice", Role: RoleCustomer}
	if err := u.SetPassword("p@ssw0rd"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if u.PasswordHash == "" {
		t.Fatalf("expected non-empty hash")
	}
	if u.PasswordHash == "p@ssw0rd" {
		t.Fatalf("password stored in plaintext")
	}
	if err := u.CheckPassword("p@ssw0rd"); err != nil {
		t.Fatalf("expected check ok, got %v", err)
	}
	if err := u.CheckPassword("wrong"); err == nil {
		t.Fatalf("expected check fail")
	}
}

func TestRoleSelfRegisterable(t *testing.T) {
	cases := []struct {
		role Role
		want bool
	}{
		{RoleOwner, true},
		{RoleCustomer, true},
		{RoleAdmin, false},
		{Role("superuser"), false},
	}
	for _, tc := range cases {
		if got := tc.role.SelfRegisterable(); got != tc.want {
			t.Errorf("SelfRegisterable(%q) = %v, want %v", tc.role, got, tc.want)
		}
	}
}
