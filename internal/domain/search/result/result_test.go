package result

import "testing"

func TestNew(t *testing.T) {
	r := New("P1", "Widget", "A widget.", 0.25)

	if r.ID() != "P1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Title() != "Widget" {
		t.Errorf("Title() = %q", r.Title())
	}
	if r.Abstract() != "A widget." {
		t.Errorf("Abstract() = %q", r.Abstract())
	}
	if r.Distance() != 0.25 {
		t.Errorf("Distance() = %f", r.Distance())
	}
}

func TestLess(t *testing.T) {
	tests := []struct {
		name string
		a, b Ranked
		want bool
	}{
		{"smaller distance first", Ranked{"B", 0.1}, Ranked{"A", 0.2}, true},
		{"larger distance later", Ranked{"A", 0.3}, Ranked{"B", 0.2}, false},
		{"tie broken by id", Ranked{"A", 0.2}, Ranked{"B", 0.2}, true},
		{"tie reversed", Ranked{"B", 0.2}, Ranked{"A", 0.2}, false},
		{"equal", Ranked{"A", 0.2}, Ranked{"A", 0.2}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Less(tc.a, tc.b); got != tc.want {
				t.Errorf("Less(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
