// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package grid builds the rectangular Y-Z simulation point set.
package grid

import "math"

// component tags, matching the k column of the spec's Point tuple
const (
	U = 0 // longitudinal
	V = 1 // lateral
	W = 2 // vertical
)

// colocation tolerance shared by the whole pipeline
const Tol = 1e-6

// Point is one (component, x, y, z) simulation location. x is always 0
// by convention; the field is kept so Point has the same shape as a
// constraint channel.
type Point struct {
	K    int
	X, Y, Z float64
}

// New enumerates the Cartesian product {u,v,w} x y x z in (k outer, y
// middle, z inner) order. The order is frozen: Cholesky row/column
// indices in the spectral engine depend on it.
func New(ymin, ymax float64, ny int, zmin, zmax float64, nz int) []Point {
	if ny <= 0 || nz <= 0 {
		return nil
	}
	ys := linspace(ymin, ymax, ny)
	zs := linspace(zmin, zmax, nz)
	pts := make([]Point, 0, 3*ny*nz)
	for k := 0; k < 3; k++ {
		for _, y := range ys {
			for _, z := range zs {
				pts = append(pts, Point{K: k, X: 0, Y: y, Z: z})
			}
		}
	}
	return pts
}

// linspace returns n evenly spaced values in [lo, hi], matching
// numpy.linspace's endpoint-inclusive convention.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	return out
}

// IndexOf returns the index of the point matching (k,y,z) within Tol,
// and whether a match was found.
func IndexOf(pts []Point, k int, y, z float64) (int, bool) {
	for i, p := range pts {
		if p.K == k && math.Abs(p.Y-y) < Tol && math.Abs(p.Z-z) < Tol {
			return i, true
		}
	}
	return 0, false
}

// Colocated reports whether p and q are the same point within Tol.
func Colocated(p, q Point) bool {
	return p.K == q.K && math.Abs(p.Y-q.Y) < Tol && math.Abs(p.Z-q.Z) < Tol
}

// RemoveColocated returns the subset of sim that has no match in con,
// in sim's original order, plus a parallel slice of the kept original
// indices (needed by callers that must drop matching data columns too).
func RemoveColocated(con, sim []Point) (kept []Point, keptIdx []int) {
	for i, s := range sim {
		dup := false
		for _, c := range con {
			if Colocated(c, s) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, s)
			keptIdx = append(keptIdx, i)
		}
	}
	return
}
