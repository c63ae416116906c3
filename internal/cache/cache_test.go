package cache

import "testing"

func TestCache_GetMissing(t *testing.T) {
	c := New()
	if _, ok := c.Get("acme"); ok {
		t.Error("expected miss on empty cache")
	}
}

func TestCache_SetThenGet(t *testing.T) {
	c := New()
	c.Set("acme", 42)

	id, ok := c.Get("acme")
	if !ok || id != 42 {
		t.Errorf("Get(acme) = %d, %v; want 42, true", id, ok)
	}
	if len(c.ids) != 1 {
		t.Errorf("cache holds %d entries, want 1", len(c.ids))
	}
}

func TestCache_SetOverwrites(t *testing.T) {
	c := New()
	c.Set("acme", 1)
	c.Set("acme", 2)

	if id, _ := c.Get("acme"); id != 2 {
		t.Errorf("Get(acme) = %d, want 2", id)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "acme corp"},
		{"  Acme   Corp ", "acme corp"},
		{"Austin, TX, United States", "austin, tx, united states"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Key(tt.in); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
