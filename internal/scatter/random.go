package scatter

import (
	gomath "math"
	"math/rand"

	"github.com/Faultbox/grove/pkg/math"
)

// RandomSource supplies uniform floats in [0,1). *rand.Rand satisfies it.
type RandomSource interface {
	Float32() float32
}

// NewRandom returns a seeded source.
func NewRandom(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Range returns a uniform value between min and max.
func Range(r RandomSource, min, max float32) float32 {
	return min + (max-min)*r.Float32()
}

// Index returns a uniform index in [0, n). n must be positive.
func Index(r RandomSource, n int) int {
	i := int(r.Float32() * float32(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// InsideUnitCircle returns a point uniformly distributed over the unit disk.
func InsideUnitCircle(r RandomSource) math.Vec2 {
	angle := 2 * gomath.Pi * float64(r.Float32())
	radius := gomath.Sqrt(float64(r.Float32()))
	return math.Vec2{
		X: float32(radius * gomath.Cos(angle)),
		Y: float32(radius * gomath.Sin(angle)),
	}
}
