package registry

import (
	"slices"
	"testing"
)

func TestRegistry_Has(t *testing.T) {
	reg := Registry{"abc123": "https://a.com"}

	if !reg.Has("abc123") {
		t.Error("Has(abc123) = false, want true")
	}
	if reg.Has("zzz") {
		t.Error("Has(zzz) = true, want false")
	}
	if Registry(nil).Has("abc123") {
		t.Error("nil registry Has() = true, want false")
	}
}

func TestRegistry_Clone(t *testing.T) {
	t.Run("copy is independent", func(t *testing.T) {
		reg := Registry{"a": "https://a.com"}
		cp := reg.Clone()
		cp["b"] = "https://b.com"

		if reg.Has("b") {
			t.Error("mutating clone changed original")
		}
	})

	t.Run("nil clones to empty", func(t *testing.T) {
		cp := Registry(nil).Clone()
		if cp == nil {
			t.Fatal("Clone() of nil = nil, want empty registry")
		}
		if len(cp) != 0 {
			t.Errorf("len(Clone()) = %d, want 0", len(cp))
		}
	})
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name        string
		before      Registry
		after       Registry
		wantUpserts Registry
		wantDeletes []string
	}{
		{
			name:        "no change",
			before:      Registry{"a": "1"},
			after:       Registry{"a": "1"},
			wantUpserts: Registry{},
		},
		{
			name:        "insert",
			before:      Registry{"a": "1"},
			after:       Registry{"a": "1", "b": "2"},
			wantUpserts: Registry{"b": "2"},
		},
		{
			name:        "update",
			before:      Registry{"a": "1"},
			after:       Registry{"a": "9"},
			wantUpserts: Registry{"a": "9"},
		},
		{
			name:        "delete",
			before:      Registry{"a": "1", "b": "2"},
			after:       Registry{"a": "1"},
			wantUpserts: Registry{},
			wantDeletes: []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := diff(tt.before, tt.after)

			if len(c.upserts) != len(tt.wantUpserts) {
				t.Fatalf("upserts = %v, want %v", c.upserts, tt.wantUpserts)
			}
			for code, url := range tt.wantUpserts {
				if c.upserts[code] != url {
					t.Errorf("upserts[%q] = %q, want %q", code, c.upserts[code], url)
				}
			}

			slices.Sort(c.deletes)
			if !slices.Equal(c.deletes, tt.wantDeletes) {
				t.Errorf("deletes = %v, want %v", c.deletes, tt.wantDeletes)
			}

			wantEmpty := len(tt.wantUpserts) == 0 && len(tt.wantDeletes) == 0
			if c.empty() != wantEmpty {
				t.Errorf("empty() = %v, want %v", c.empty(), wantEmpty)
			}
		})
	}
}
