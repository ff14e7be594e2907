package math3d

import (
	"testing"
)

func BenchmarkVec3Normalize(b *testing.B) {
	v := V3(1, 2, 3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v.Normalize()
	}
}

func BenchmarkVec3Cross(b *testing.B) {
	v1 := V3(1, 2, 3)
	v2 := V3(4, 5, 6)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v1.Cross(v2)
	}
}

func BenchmarkVec3Dot(b *testing.B) {
	v1 := V3(1, 2, 3)
	v2 := V3(4, 5, 6)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v1.Dot(v2)
	}
}

func BenchmarkVec3Reflect(b *testing.B) {
	i := V3(1, -1, 0)
	n := V3(0, 1, 0)

	b.ResetTimer()
	for k := 0; k < b.N; k++ {
		_ = i.Reflect(n)
	}
}

func BenchmarkRayAt(b *testing.B) {
	r := NewRay(V3(0, 0.5, -4), V3(0, -0.5, 4))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.At(3.5)
	}
}
