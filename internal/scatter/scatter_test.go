package scatter

import (
	"errors"
	"testing"

	"github.com/Faultbox/grove/internal/heightmap"
	"github.com/Faultbox/grove/internal/terrain"
	"github.com/Faultbox/grove/pkg/math"
)

var oak = Species{Name: "oak", Model: "trees/oak.glb", MinHeight: 2, MaxHeight: 5}

func flatSurface(y float32) SurfaceFunc {
	return func(x, z float32) (float32, math.Vec3, bool) {
		return y, math.Up, true
	}
}

func square(size float32) Footprint {
	return Footprint{MaxX: size, MaxZ: size}
}

func TestScatter_OnGeneratedTerrain(t *testing.T) {
	ter := terrain.New()
	if err := ter.Generate(heightmap.Constant(4, 4, 0.5), terrain.Params{Width: 4, Depth: 4, HeightScale: 2, Steepness: 1}, terrain.DefaultTransform()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	tf := ter.Footprint()

	s := New(Params{Groups: 1, TreesPerGroup: 3, GroupRadius: 1, MaxSlopeAngle: 45}, []Species{oak}, NewRandom(7))
	stats, err := s.Scatter(ter, Footprint{MinX: tf.MinX, MaxX: tf.MaxX, MinZ: tf.MinZ, MaxZ: tf.MaxZ, BaseY: ter.BaseElevation()})
	if err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}
	if stats.TreesPlaced != 3 || s.Len() != 3 {
		t.Fatalf("expected 3 trees, got %d (len %d)", stats.TreesPlaced, s.Len())
	}
	for _, inst := range s.Instances() {
		if inst.Position.Y < 0.999 || inst.Position.Y > 1.001 {
			t.Errorf("expected y=1, got %v", inst.Position.Y)
		}
		if inst.Position.X < 0 || inst.Position.X > 4 || inst.Position.Z < 0 || inst.Position.Z > 4 {
			t.Errorf("instance outside footprint: %v", inst.Position)
		}
	}
	if s.Phase() != PhaseDone {
		t.Errorf("expected phase Done, got %v", s.Phase())
	}
}

func TestScatter_FlatNeverRejects(t *testing.T) {
	s := New(Params{Groups: 10, TreesPerGroup: 8, GroupRadius: 2, MaxSlopeAngle: 0}, []Species{oak}, NewRandom(1))
	stats, err := s.Scatter(flatSurface(3), square(50))
	if err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}
	if stats.GroupsRejected != 0 || stats.TreesRejected != 0 {
		t.Errorf("expected no rejections on flat ground, got %+v", stats)
	}
	if s.Len() != 80 {
		t.Errorf("expected 80 trees, got %d", s.Len())
	}
}

func TestScatter_SkipsCliff(t *testing.T) {
	cliff := SurfaceFunc(func(x, z float32) (float32, math.Vec3, bool) {
		if x >= 4.5 && x <= 5.5 {
			return 0, math.Vec3{X: 1}, true
		}
		return 0, math.Up, true
	})

	for seed := int64(0); seed < 1000; seed++ {
		s := New(Params{Groups: 3, TreesPerGroup: 5, GroupRadius: 1.5, MaxSlopeAngle: 30}, []Species{oak}, NewRandom(seed))
		if _, err := s.Scatter(cliff, square(10)); err != nil {
			t.Fatalf("seed %d: Scatter failed: %v", seed, err)
		}
		for _, inst := range s.Instances() {
			if inst.Position.X >= 4.5 && inst.Position.X <= 5.5 {
				t.Fatalf("seed %d: tree placed on cliff at %v", seed, inst.Position)
			}
		}
	}
}

func TestScatter_GroupRejectionIsNotRetried(t *testing.T) {
	calls := 0
	steep := SurfaceFunc(func(x, z float32) (float32, math.Vec3, bool) {
		calls++
		return 0, math.Vec3{Z: 1}, true
	})

	s := New(Params{Groups: 4, TreesPerGroup: 6, GroupRadius: 1, MaxSlopeAngle: 45}, []Species{oak}, NewRandom(3))
	stats, err := s.Scatter(steep, square(20))
	if err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}
	if stats.GroupsRejected != 4 || stats.GroupsPlaced != 0 {
		t.Errorf("expected all 4 groups rejected, got %+v", stats)
	}
	if calls != 4 {
		t.Errorf("expected one query per group, got %d", calls)
	}
	if s.Len() != 0 {
		t.Errorf("expected no trees, got %d", s.Len())
	}
}

func TestScatter_PerTreeRejection(t *testing.T) {
	calls := 0
	// Group centres are flat, every tree spot is steep.
	surface := SurfaceFunc(func(x, z float32) (float32, math.Vec3, bool) {
		calls++
		if calls%4 == 1 {
			return 0, math.Up, true
		}
		return 0, math.Vec3{X: 1}, true
	})

	s := New(Params{Groups: 2, TreesPerGroup: 3, GroupRadius: 1, MaxSlopeAngle: 45}, []Species{oak}, NewRandom(5))
	stats, err := s.Scatter(surface, square(20))
	if err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}
	if stats.GroupsPlaced != 2 {
		t.Errorf("expected 2 groups placed, got %d", stats.GroupsPlaced)
	}
	if stats.TreesRejected != 6 || s.Len() != 0 {
		t.Errorf("expected 6 trees rejected and none placed, got %+v", stats)
	}
}

func TestScatter_MissFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		surface SurfaceFunc
		wantY   float32
	}{
		{
			name: "all miss uses base height",
			surface: func(x, z float32) (float32, math.Vec3, bool) {
				return 0, math.Vec3{}, false
			},
			wantY: -3,
		},
		{
			name: "tree miss uses group height",
			surface: func() SurfaceFunc {
				calls := 0
				return func(x, z float32) (float32, math.Vec3, bool) {
					calls++
					if calls == 1 {
						return 7, math.Up, true
					}
					return 0, math.Vec3{}, false
				}
			}(),
			wantY: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := square(10)
			fp.BaseY = -3
			s := New(Params{Groups: 1, TreesPerGroup: 4, GroupRadius: 1, MaxSlopeAngle: 10}, []Species{oak}, NewRandom(9))
			stats, err := s.Scatter(tt.surface, fp)
			if err != nil {
				t.Fatalf("Scatter failed: %v", err)
			}
			if s.Len() != 4 {
				t.Fatalf("expected 4 trees, got %d", s.Len())
			}
			if stats.Misses == 0 {
				t.Error("expected misses to be counted")
			}
			for _, inst := range s.Instances() {
				if inst.Position.Y != tt.wantY {
					t.Errorf("expected y=%v, got %v", tt.wantY, inst.Position.Y)
				}
			}
		})
	}
}

func TestScatter_IDsAcrossPasses(t *testing.T) {
	s := New(Params{Groups: 2, TreesPerGroup: 5, GroupRadius: 1, MaxSlopeAngle: 45}, []Species{oak}, NewRandom(11))

	if _, err := s.Scatter(flatSurface(0), square(10)); err != nil {
		t.Fatalf("first Scatter failed: %v", err)
	}
	first := s.Instances()
	if _, err := s.Scatter(flatSurface(0), square(10)); err != nil {
		t.Fatalf("second Scatter failed: %v", err)
	}
	second := s.Instances()

	if len(second) != 10 {
		t.Fatalf("expected previous pass cleared, got %d instances", len(second))
	}
	seen := make(map[uint64]bool)
	for _, inst := range first {
		seen[inst.ID] = true
	}
	for _, inst := range second {
		if seen[inst.ID] {
			t.Errorf("ID %d reused across passes", inst.ID)
		}
	}
}

func TestScatter_HeightWithinSpeciesRange(t *testing.T) {
	s := New(Params{Groups: 100, TreesPerGroup: 100, GroupRadius: 1, MaxSlopeAngle: 90}, []Species{oak}, NewRandom(13))
	if _, err := s.Scatter(flatSurface(0), square(100)); err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}
	if s.Len() != 10000 {
		t.Fatalf("expected 10000 trees, got %d", s.Len())
	}
	for _, inst := range s.Instances() {
		if inst.Scale.Y < oak.MinHeight || inst.Scale.Y > oak.MaxHeight {
			t.Fatalf("height %v outside [%v, %v]", inst.Scale.Y, oak.MinHeight, oak.MaxHeight)
		}
		if inst.Yaw < 0 || inst.Yaw > 360 {
			t.Fatalf("yaw %v outside [0, 360]", inst.Yaw)
		}
	}
}

func TestScatter_EmptyPaletteClears(t *testing.T) {
	s := New(Params{Groups: 2, TreesPerGroup: 2, GroupRadius: 1, MaxSlopeAngle: 45}, []Species{oak}, NewRandom(17))
	if _, err := s.Scatter(flatSurface(0), square(10)); err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}
	if s.Len() == 0 {
		t.Fatal("expected trees from first pass")
	}

	s.SetPalette([]Species{{Name: "ghost"}})
	stats, err := s.Scatter(flatSurface(0), square(10))
	if err != nil {
		t.Fatalf("expected no error for empty palette, got %v", err)
	}
	if s.Len() != 0 || stats.TreesPlaced != 0 {
		t.Errorf("expected zero placements, got %d", s.Len())
	}
}

func TestScatter_OnlyUsableSpecies(t *testing.T) {
	palette := []Species{
		{Name: "stump"},
		oak,
		{Name: "pine", Model: "trees/pine.glb", MinHeight: 6, MaxHeight: 9, BaseScale: math.Vec3{X: 2, Z: 2}},
	}
	s := New(Params{Groups: 20, TreesPerGroup: 10, GroupRadius: 1, MaxSlopeAngle: 45}, palette, NewRandom(19))
	if _, err := s.Scatter(flatSurface(0), square(40)); err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}

	counts := map[string]int{}
	for _, inst := range s.Instances() {
		counts[inst.Species]++
		if inst.Species == "pine" && (inst.Scale.X != 2 || inst.Scale.Z != 2) {
			t.Errorf("expected pine template scale kept, got %v", inst.Scale)
		}
	}
	if counts["stump"] != 0 {
		t.Errorf("expected no stumps, got %d", counts["stump"])
	}
	if counts["oak"] == 0 || counts["pine"] == 0 {
		t.Errorf("expected both usable species, got %v", counts)
	}
}

func TestScatter_GroupCohesion(t *testing.T) {
	const radius = 1.5
	s := New(Params{Groups: 30, TreesPerGroup: 6, GroupRadius: radius, MaxSlopeAngle: 45}, []Species{oak}, NewRandom(23))
	if _, err := s.Scatter(flatSurface(0), square(30)); err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}

	byGroup := map[int][]Instance{}
	for _, inst := range s.Instances() {
		byGroup[inst.Group] = append(byGroup[inst.Group], inst)
	}
	for g, trees := range byGroup {
		for i := range trees {
			for j := i + 1; j < len(trees); j++ {
				delta := trees[i].Position.Sub(trees[j].Position)
				delta.Y = 0
				if d := delta.Length(); d > 2*radius+1e-4 {
					t.Errorf("group %d: trees %v apart, expected <= %v", g, d, 2*radius)
				}
			}
		}
	}
}

func TestScatter_Deterministic(t *testing.T) {
	params := Params{Groups: 5, TreesPerGroup: 4, GroupRadius: 2, MaxSlopeAngle: 45}
	a := New(params, []Species{oak}, NewRandom(42))
	b := New(params, []Species{oak}, NewRandom(42))
	a.Scatter(flatSurface(1), square(20))
	b.Scatter(flatSurface(1), square(20))

	ia, ib := a.Instances(), b.Instances()
	if len(ia) != len(ib) {
		t.Fatalf("expected equal counts, got %d and %d", len(ia), len(ib))
	}
	for i := range ia {
		if ia[i] != ib[i] {
			t.Errorf("instance %d differs: %+v vs %+v", i, ia[i], ib[i])
		}
	}
}

func TestScatter_InvalidParamsKeepsInstances(t *testing.T) {
	s := New(Params{Groups: 1, TreesPerGroup: 2, GroupRadius: 1, MaxSlopeAngle: 45}, []Species{oak}, NewRandom(29))
	if _, err := s.Scatter(flatSurface(0), square(10)); err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}

	s.SetParams(Params{Groups: -1})
	_, err := s.Scatter(flatSurface(0), square(10))
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("expected prior instances kept, got %d", s.Len())
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"zero", Params{}, false},
		{"typical", Params{Groups: 10, TreesPerGroup: 5, GroupRadius: 3, MaxSlopeAngle: 30}, false},
		{"negative groups", Params{Groups: -1}, true},
		{"negative trees", Params{TreesPerGroup: -2}, true},
		{"negative radius", Params{GroupRadius: -0.1}, true},
		{"slope above 180", Params{MaxSlopeAngle: 181}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDegenerateFootprintUsesCentre(t *testing.T) {
	s := New(Params{Groups: 3, TreesPerGroup: 1, GroupRadius: 10, MaxSlopeAngle: 45}, []Species{oak}, NewRandom(31))
	if _, err := s.Scatter(flatSurface(0), Footprint{MinX: 2, MaxX: 4, MinZ: 2, MaxZ: 4}); err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}
	for _, inst := range s.Instances() {
		p := inst.Position
		if p.X < 2 || p.X > 4 || p.Z < 2 || p.Z > 4 {
			t.Errorf("instance escaped footprint: %v", p)
		}
	}
}

func TestScatter_NilRandomUsesDefault(t *testing.T) {
	params := Params{Groups: 3, TreesPerGroup: 4, GroupRadius: 1, MaxSlopeAngle: 45}
	s := New(params, []Species{oak}, nil)
	if _, err := s.Scatter(flatSurface(0), square(10)); err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}

	want := New(params, []Species{oak}, NewRandom(0))
	want.Scatter(flatSurface(0), square(10))
	got, exp := s.Instances(), want.Instances()
	if len(got) != 12 || len(got) != len(exp) {
		t.Fatalf("expected 12 trees from both, got %d and %d", len(got), len(exp))
	}
	for i := range got {
		if got[i] != exp[i] {
			t.Errorf("tree %d: expected %+v, got %+v", i, exp[i], got[i])
		}
	}

	s.SetRandom(nil)
	if _, err := s.Scatter(flatSurface(0), square(10)); err != nil {
		t.Fatalf("Scatter after SetRandom(nil) failed: %v", err)
	}
}

func TestInsideUnitCircle(t *testing.T) {
	r := NewRandom(37)
	for range 5000 {
		p := InsideUnitCircle(r)
		if (math.Vec3{X: p.X, Z: p.Y}).Length() > 1+1e-6 {
			t.Fatalf("point %v outside unit disk", p)
		}
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseTreePlacement.String() != "TreePlacement" {
		t.Errorf("expected TreePlacement, got %s", PhaseTreePlacement)
	}
	if Phase(99).String() != "Phase(99)" {
		t.Errorf("expected Phase(99), got %s", Phase(99))
	}
}
