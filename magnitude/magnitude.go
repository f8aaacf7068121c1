// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package magnitude computes the per-point, per-frequency amplitude
// |M[i,p]| = sqrt(S_k(f_i;y,z) * df) that feeds the spectral engine's
// covariance assembly (spec section 4.3). S_k already carries the
// factor sigma(k,y,z)^2, so |M| is sigma times the square root of the
// unit-variance spectrum times df.
package magnitude

import (
	"math"
	"sort"

	"github.com/ebranlard/iea29-turb/constraint"
	"github.com/ebranlard/iea29-turb/grid"
	"github.com/ebranlard/iea29-turb/profile"
	"gonum.org/v1/gonum/mat"
)

// component-specific Kaimal integral length scales, relative to Lambda1
// (the longitudinal turbulence scale parameter), per IEC 61400-1.
var kaimalLenScale = [3]float64{8.10, 2.70, 0.66}

// SpecFunc returns the one-sided power spectral density S_k(f;y,z) for
// one component at one frequency, m^2/s (spec_func(f,k,y,z,**ctx) in
// spec section 6; sig, lambda1 and uRef stand in for **ctx).
type SpecFunc func(f float64, k int, y, z float64, sig, lambda1, uRef float64) float64

// KaimalSpectrum is the default spectrum model (IEC 61400-1 Ed.3,
// eq. for S_k): S_k(f) = sig^2 * (4*L_k/uRef) / (1+6*f*L_k/uRef)^(5/3).
func KaimalSpectrum(f float64, k int, y, z float64, sig, lambda1, uRef float64) float64 {
	lk := kaimalLenScale[k] * lambda1
	num := 4.0 * lk / uRef
	den := math.Pow(1.0+6.0*f*lk/uRef, 5.0/3.0)
	return sig * sig * num / den
}

// Model is the pluggable MagnitudeModel callable (spec section 9:
// "tagged variants for IEC, 3-D, data-interpolated, and user-supplied
// closed forms"). Evaluate returns the (n_f, n_s) magnitude matrix.
type Model interface {
	Evaluate(freq []float64, pts []grid.Point, sigFunc profile.SigFunc, ctx profile.Context, lambda1 float64) *mat.Dense
}

// Kaimal is the default MagnitudeModel: KaimalSpectrum integrated into
// an amplitude via Evaluate.
type Kaimal struct{}

func (Kaimal) Evaluate(freq []float64, pts []grid.Point, sigFunc profile.SigFunc, ctx profile.Context, lambda1 float64) *mat.Dense {
	return Evaluate(freq, pts, sigFunc, ctx, lambda1, KaimalSpectrum)
}

// Evaluate returns the (n_f, n_s) magnitude matrix for the given points
// and frequencies using spec as the spectrum model. Row 0 (DC) is left
// at zero, matching the simulated-point convention; uRef is taken from
// ctx, while sigFunc and lambda1 are passed explicitly.
func Evaluate(freq []float64, pts []grid.Point, sigFunc profile.SigFunc, ctx profile.Context, lambda1 float64, spec SpecFunc) *mat.Dense {
	nf := len(freq)
	ns := len(pts)
	out := mat.NewDense(nf, ns, nil)
	if ns == 0 || nf == 0 {
		return out
	}
	ks := make([]int, ns)
	ys := make([]float64, ns)
	zs := make([]float64, ns)
	for i, p := range pts {
		ks[i], ys[i], zs[i] = p.K, p.Y, p.Z
	}
	sig := sigFunc(ks, ys, zs, ctx)
	df := 0.0
	if nf > 1 {
		df = freq[1] - freq[0]
	}
	for i := 1; i < nf; i++ {
		f := freq[i]
		for p := 0; p < ns; p++ {
			s := spec(f, ks[p], ys[p], zs[p], sig[p], lambda1, ctx.URef)
			out.Set(i, p, math.Sqrt(s*df))
		}
	}
	return out
}

// DataInterp is the MagnitudeModel selected by interp_data's "spec"
// entry (spec section 9): instead of evaluating a closed-form
// spectrum, it interpolates the measured one-sided PSD amplitude of
// Con directly, linearly interpolated by height within each component
// (clamped to the nearest sample outside the measured range). Con's time
// grid is required to match the engine's (CheckTimeGrid), so its FFT
// rows line up 1:1 with freq.
type DataInterp struct {
	Con *constraint.Set
}

func (d DataInterp) Evaluate(freq []float64, pts []grid.Point, sigFunc profile.SigFunc, ctx profile.Context, lambda1 float64) *mat.Dense {
	nf := len(freq)
	ns := len(pts)
	out := mat.NewDense(nf, ns, nil)
	if ns == 0 || nf == 0 || d.Con == nil {
		return out
	}
	conMags, err := d.Con.Magnitudes()
	if err != nil {
		return out
	}
	cnf, _ := conMags.Dims()
	nRows := nf
	if cnf < nRows {
		nRows = cnf
	}
	byComp := groupByComponent(d.Con.Points)
	for i := 1; i < nRows; i++ {
		for p, pt := range pts {
			idxs := byComp[pt.K]
			if len(idxs) == 0 {
				continue
			}
			zs := make([]float64, len(idxs))
			vs := make([]float64, len(idxs))
			for j, idx := range idxs {
				zs[j] = d.Con.Points[idx].Z
				vs[j] = conMags.At(i, idx)
			}
			out.Set(i, p, interpByHeight(zs, vs, pt.Z))
		}
	}
	return out
}

// groupByComponent buckets point indices by component, each bucket
// sorted by height, so Evaluate can binary-search-free scan it.
func groupByComponent(pts []grid.Point) map[int][]int {
	groups := map[int][]int{}
	for i, p := range pts {
		groups[p.K] = append(groups[p.K], i)
	}
	for k := range groups {
		idxs := groups[k]
		sort.Slice(idxs, func(a, b int) bool { return pts[idxs[a]].Z < pts[idxs[b]].Z })
	}
	return groups
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
