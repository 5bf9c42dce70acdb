package helper

import "testing"

func TestGenHelpersLooksUpKnownNames(t *testing.T) {
	table := GenHelpers()

	cases := []struct {
		name    Name
		returns bool
		arity   int
	}{
		{CSRRW, true, 2},
		{SRet, false, 0},
		{FAddS, true, 3},
		{FClassD, true, 1},
		{VSetVL, true, 4},
	}
	for _, c := range cases {
		role, ok := table.Lookup(c.name)
		if !ok {
			t.Fatalf("expected %q to be registered", c.name)
		}
		if role.Returns != c.returns || role.Arity != c.arity {
			t.Fatalf("%q: got returns=%v arity=%d, want returns=%v arity=%d",
				c.name, role.Returns, role.Arity, c.returns, c.arity)
		}
	}
}

func TestGenHelpersUnknownNameMisses(t *testing.T) {
	table := GenHelpers()
	if _, ok := table.Lookup(Name("not_a_real_helper")); ok {
		t.Fatal("expected an unregistered name to miss")
	}
}

func TestGenHelpersNamesCoversFPFamily(t *testing.T) {
	table := GenHelpers()
	names := table.Names()
	seen := make(map[Name]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, want := range []Name{FAddS, FAddD, FMAddS, FCvtWS, FCvtSD} {
		if !seen[want] {
			t.Fatalf("expected Names() to include %q", want)
		}
	}
}
