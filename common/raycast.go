package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// rayParallelEpsilon is the direction magnitude below which a ray is treated as
// parallel to a slab.
const rayParallelEpsilon = 1e-8

// RaycastAABB intersects a ray with an axis-aligned box using the slab method.
// The direction does not need to be normalized: distances are expressed in
// multiples of dir. Components close to zero are handled by checking whether the
// origin already lies between the slab planes.
//
// A hit requires the entry distance to not exceed the exit distance and the exit
// distance to be non-negative. When the origin is inside the box the returned
// distance is 0.
//
// Parameters:
//   - origin: ray origin
//   - dir: ray direction
//   - box: the box to test
//
// Returns:
//   - bool: true if the ray hits the box
//   - float32: the entry distance along the ray
func RaycastAABB(origin, dir mgl32.Vec3, box AABB) (bool, float32) {
	tmin, tmax := float32(-math32.MaxFloat32), float32(math32.MaxFloat32)

	for i := 0; i < 3; i++ {
		if math32.Abs(dir[i]) < rayParallelEpsilon {
			if origin[i] < box.Min[i] || origin[i] > box.Max[i] {
				return false, 0
			}
			continue
		}
		inv := 1.0 / dir[i]
		t1 := (box.Min[i] - origin[i]) * inv
		t2 := (box.Max[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
	}

	return slabResult(tmin, tmax)
}

// RaycastOrientedBox intersects a ray with an oriented box by projecting the ray onto
// each of the box axes and running the slab test in box space. The direction is
// normalized internally, so the returned distance is in world units.
//
// Parameters:
//   - origin: ray origin
//   - dir: ray direction (any non-zero length)
//   - box: the box to test
//
// Returns:
//   - bool: true if the ray hits the box
//   - float32: the entry distance along the normalized ray
func RaycastOrientedBox(origin, dir mgl32.Vec3, box OrientedBox) (bool, float32) {
	l := dir.Len()
	if l == 0 {
		return false, 0
	}
	d := dir.Mul(1 / l)
	p := box.Center.Sub(origin)

	tmin, tmax := float32(-math32.MaxFloat32), float32(math32.MaxFloat32)

	for i := 0; i < 3; i++ {
		e := box.Axes[i].Dot(p)
		f := box.Axes[i].Dot(d)
		if math32.Abs(f) < rayParallelEpsilon {
			if -e-box.Extents[i] > 0 || -e+box.Extents[i] < 0 {
				return false, 0
			}
			continue
		}
		t1 := (e + box.Extents[i]) / f
		t2 := (e - box.Extents[i]) / f
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
	}

	return slabResult(tmin, tmax)
}

func slabResult(tmin, tmax float32) (bool, float32) {
	if tmin > tmax || tmax < 0 {
		return false, 0
	}
	if tmin < 0 {
		return true, 0
	}
	return true, tmin
}
