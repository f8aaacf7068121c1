// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profile

import (
	"math"
	"sort"

	"github.com/ebranlard/iea29-turb/constraint"
	"github.com/ebranlard/iea29-turb/grid"
)

// DataInterp is the ProfileModels variant selected by interp_data's
// "wsp"/"sig" entries (spec section 9): instead of evaluating the
// closed-form IEC profiles, it linearly interpolates, by height and
// within each component, the mean and standard deviation of a
// constraint set's measured time series.
type DataInterp struct {
	Points []grid.Point // one per constraint column
	Mean   []float64    // per-column time mean (m/s)
	Std    []float64    // per-column time standard deviation (m/s)
}

// NewDataInterp summarizes con's measured columns into the per-column
// mean and standard deviation DataInterp's WSP/Veer/Sig methods
// interpolate from.
func NewDataInterp(con *constraint.Set) *DataInterp {
	nt, nd := con.Data.Dims()
	mean := make([]float64, nd)
	std := make([]float64, nd)
	for c := 0; c < nd; c++ {
		var sum float64
		for t := 0; t < nt; t++ {
			sum += con.Data.At(t, c)
		}
		m := 0.0
		if nt > 0 {
			m = sum / float64(nt)
		}
		var ss float64
		for t := 0; t < nt; t++ {
			d := con.Data.At(t, c) - m
			ss += d * d
		}
		v := 0.0
		if nt > 0 {
			v = ss / float64(nt)
		}
		mean[c] = m
		std[c] = math.Sqrt(v)
	}
	return &DataInterp{Points: con.Points, Mean: mean, Std: std}
}

// WSP is a WSPFunc that interpolates mean U (component grid.U) from
// the constraint's measured mean, by height.
func (d *DataInterp) WSP(y, z []float64, ctx Context) []float64 {
	zs, vs := d.componentSeries(grid.U, d.Mean)
	out := make([]float64, len(z))
	for i, zi := range z {
		out[i] = interpByHeight(zs, vs, zi)
	}
	return out
}

// Veer is a VeerFunc that interpolates mean V (component grid.V) from
// the constraint's measured mean, by height.
func (d *DataInterp) Veer(y, z []float64, ctx Context) []float64 {
	zs, vs := d.componentSeries(grid.V, d.Mean)
	out := make([]float64, len(z))
	for i, zi := range z {
		out[i] = interpByHeight(zs, vs, zi)
	}
	return out
}

// Sig is a SigFunc that interpolates sigma(k,z) from the constraint's
// measured standard deviation, by component and height.
func (d *DataInterp) Sig(k []int, y, z []float64, ctx Context) []float64 {
	out := make([]float64, len(k))
	cache := map[int][2][]float64{}
	for i, ki := range k {
		pair, ok := cache[ki]
		if !ok {
			zs, vs := d.componentSeries(ki, d.Std)
			pair = [2][]float64{zs, vs}
			cache[ki] = pair
		}
		out[i] = interpByHeight(pair[0], pair[1], z[i])
	}
	return out
}

// componentSeries collects (z, values[i]) for every point of
// component k, sorted by height.
func (d *DataInterp) componentSeries(k int, values []float64) (zs, vs []float64) {
	type pair struct{ z, v float64 }
	var pairs []pair
	for i, p := range d.Points {
		if p.K != k {
			continue
		}
		pairs = append(pairs, pair{p.Z, values[i]})
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].z < pairs[b].z })
	zs = make([]float64, len(pairs))
	vs = make([]float64, len(pairs))
	for i, pr := range pairs {
		zs[i], vs[i] = pr.z, pr.v
	}
	return zs, vs
}

// interpByHeight linearly interpolates vs(zs) at z, clamping to the
// nearest sample outside [zs[0], zs[len-1]].
func interpByHeight(zs, vs []float64, z float64) float64 {
	n := len(zs)
	if n == 0 {
		return 0
	}
	if n == 1 || z <= zs[0] {
		return vs[0]
	}
	if z >= zs[n-1] {
		return vs[n-1]
	}
	for i := 1; i < n; i++ {
		if z <= zs[i] {
			t := (z - zs[i-1]) / (zs[i] - zs[i-1])
			return vs[i-1] + t*(vs[i]-vs[i-1])
		}
	}
	return vs[n-1]
}
