package identity

import "testing"

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"":            RoleAnonymous,
		"PARENT":      RoleParent,
		"teacher":     RoleTeacher,
		" ADMIN ":     RoleAdmin,
		"SUPER_ADMIN": RoleSuperAdmin,
		"JANITOR":     RoleUnknown,
	}
	for raw, want := range cases {
		if got := ParseRole(raw); got != want {
			t.Fatalf("ParseRole(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestRoleStringRoundTrip(t *testing.T) {
	for _, r := range []Role{RoleParent, RoleTeacher, RoleAdmin, RoleSuperAdmin} {
		if got := ParseRole(r.String()); got != r {
			t.Fatalf("round trip of %s gave %v", r, got)
		}
	}
}

func TestSessionAuthenticated(t *testing.T) {
	var nilSession *Session
	if nilSession.Authenticated() {
		t.Fatal("nil session must be anonymous")
	}
	if (&Session{Role: RoleParent}).Authenticated() {
		t.Fatal("session without user id must be anonymous")
	}
	if !(&Session{UserID: "u1"}).Authenticated() {
		t.Fatal("session with user id must be authenticated")
	}
}
