package picking

import "testing"

func TestIntersectAABB(t *testing.T) {
	box := NewAABB(0, 0, 0, 10, 2, 10)

	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float32
	}{
		{"straight down onto top", Down(5, 12, 5), true, 10},
		{"down outside footprint", Down(11, 12, 5), false, 0},
		{"starting inside exits", Down(5, 1, 5), true, 1},
		{"pointing away", Ray{Origin: [3]float32{5, 12, 5}, Direction: [3]float32{0, 1, 0}}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectAABB(box)
			if hit != tt.hit {
				t.Fatalf("expected hit=%v, got %v", tt.hit, hit)
			}
			if hit && got != tt.wantT {
				t.Errorf("expected t=%v, got %v", tt.wantT, got)
			}
		})
	}
}

func TestNewAABB_SwapsInverted(t *testing.T) {
	box := NewAABB(4, 5, 6, 1, 2, 3)
	if box.Min != [3]float32{1, 2, 3} || box.Max != [3]float32{4, 5, 6} {
		t.Errorf("expected normalized box, got %+v", box)
	}
	if !box.ContainsXZ(2, 4) || box.ContainsXZ(0, 4) {
		t.Error("ContainsXZ gave wrong answer")
	}
}

func TestIntersectTriangle(t *testing.T) {
	a := [3]float32{0, 1, 0}
	b := [3]float32{0, 1, 1}
	c := [3]float32{1, 1, 0}

	tests := []struct {
		name string
		x, z float32
		hit  bool
	}{
		{"inside", 0.25, 0.25, true},
		{"on vertex", 0, 0, true},
		{"on hypotenuse", 0.5, 0.5, true},
		{"outside", 0.75, 0.75, false},
		{"negative", -0.1, 0.2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, hit := Down(tt.x, 5, tt.z).IntersectTriangle(a, b, c)
			if hit != tt.hit {
				t.Fatalf("expected hit=%v, got %v", tt.hit, hit)
			}
			if hit && (dist < 3.999 || dist > 4.001) {
				t.Errorf("expected distance 4, got %v", dist)
			}
		})
	}
}

func TestIntersectTriangle_Behind(t *testing.T) {
	a := [3]float32{0, 1, 0}
	b := [3]float32{0, 1, 1}
	c := [3]float32{1, 1, 0}
	if _, hit := Down(0.2, 0, 0.2).IntersectTriangle(a, b, c); hit {
		t.Error("triangle above the origin must not be hit by a downward ray")
	}
}

func TestPointAt(t *testing.T) {
	p := Down(1, 10, 2).PointAt(4)
	if p != [3]float32{1, 6, 2} {
		t.Errorf("expected (1,6,2), got %v", p)
	}
}
