package main

import "testing"

func strp(s string) *string { return &s }

func TestModelString(t *testing.T) {
	cases := []struct {
		name   string
		model  Model
		expect string
	}{
		{"both present", NewModel(strp("alpha"), strp("one")), "alpha/one"},
		{"object only", NewModel(strp("alpha"), nil), "alpha"},
		{"neither", NewModel(nil, nil), "*"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.model.String(); got != c.expect {
				t.Errorf("String() = %q, want %q", got, c.expect)
			}
		})
	}
}

func TestSessionIDAbsentVsEmpty(t *testing.T) {
	absent := NewSessionID(nil)
	empty := NewSessionID(strp(""))

	if absent.Present {
		t.Error("nil session should not be present")
	}
	if !empty.Present {
		t.Error("empty-but-given session should be present")
	}
	if absent == empty {
		t.Error("absent and empty-present sessions must be distinct keys")
	}
}

func TestAccessKeyComparable(t *testing.T) {
	k1 := AccessKey{Model: NewModel(strp("alpha"), strp("one")), Session: NewSessionID(strp("s"))}
	k2 := AccessKey{Model: NewModel(strp("alpha"), strp("one")), Session: NewSessionID(strp("s"))}
	k3 := AccessKey{Model: NewModel(strp("alpha"), strp("two")), Session: NewSessionID(strp("s"))}

	if k1 != k2 {
		t.Error("identical keys must compare equal")
	}
	if k1 == k3 {
		t.Error("differing keys must not compare equal")
	}

	m := map[AccessKey]int{k1: 1}
	if _, ok := m[k2]; !ok {
		t.Error("AccessKey must be usable as a map key")
	}
}

func TestAccessModeString(t *testing.T) {
	if Granted.String() != "granted" {
		t.Errorf("Granted.String() = %q", Granted.String())
	}
	if Denied.String() != "denied" {
		t.Errorf("Denied.String() = %q", Denied.String())
	}
}
