// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coherence builds the per-frequency spatial coherence tensor
// consumed by the spectral engine's covariance assembly (spec section
// 4.2). Two models are provided: IEC 61400-1 Ed.3 (u-component pairs
// only) and a 3-D variant with component-specific length scaling.
package coherence

import (
	"math"

	"github.com/ebranlard/iea29-turb/grid"
	"github.com/ebranlard/iea29-turb/turberr"
)

// Kind selects the coherence formula.
type Kind int

const (
	IEC Kind = iota
	ThreeD
)

// Params configures the coherence evaluation. Edition must be 3 for
// Kind==IEC; any other value is rejected (spec section 4.2).
type Params struct {
	Kind         Kind
	Edition      int
	URef         float64
	Lc           float64
	BackwardComp bool // select the legacy per-pair numerics path
}

// lc scaling factors for the 3-D model, indexed by component.
var threeDScale = [3]float64{1.0, 2.7 / 8.1, 0.66 / 8.1}

// chunkSize bounds the number of point pairs evaluated at once, to keep
// transient memory bounded (spec section 4.2 rationale).
const chunkSize = 10000

// Tensor is a real, symmetric, unit-diagonal N x N x F coherence
// tensor stored as a flat slice: At(i,j,fi) = data[fi*n*n + i*n + j].
type Tensor struct {
	N, F int
	data []float64
}

func newTensor(n, f int) *Tensor {
	t := &Tensor{N: n, F: f, data: make([]float64, n*n*f)}
	for fi := 0; fi < f; fi++ {
		for i := 0; i < n; i++ {
			t.set(i, i, fi, 1.0)
		}
	}
	return t
}

func (t *Tensor) idx(i, j, fi int) int { return fi*t.N*t.N + i*t.N + j }

// At returns the coherence between points i and j at frequency index fi.
func (t *Tensor) At(i, j, fi int) float64 { return t.data[t.idx(i, j, fi)] }

func (t *Tensor) set(i, j, fi int, v float64) { t.data[t.idx(i, j, fi)] = v }

func (t *Tensor) setSym(i, j, fi int, v float64) {
	t.set(i, j, fi, v)
	t.set(j, i, fi, v)
}

// Build constructs the N x N x F coherence tensor for the given
// frequencies and combined point set.
func Build(freq []float64, pts []grid.Point, p Params) (*Tensor, error) {
	switch p.Kind {
	case IEC:
		if p.Edition != 3 {
			return nil, turberr.New(turberr.Precondition, "IEC coherence: only edition 3 is permitted, got %d", p.Edition)
		}
		return buildOneComponent(freq, pts, p, grid.U, p.Lc)
	case ThreeD:
		return build3D(freq, pts, p)
	default:
		return nil, turberr.New(turberr.Precondition, "coherence: unknown model kind %v", p.Kind)
	}
}

// buildOneComponent fills in coherence values for a single component k,
// factoring the frequency-dependent term out of the pairwise loop per
// spec section 4.2's rationale.
func buildOneComponent(freq []float64, pts []grid.Point, p Params, comp int, lc float64) (*Tensor, error) {
	n, f := len(pts), len(freq)
	t := newTensor(n, f)
	idx := componentIndices(pts, comp)
	fillPairs(t, freq, pts, idx, p.URef, lc, p.BackwardComp)
	return t, nil
}

func build3D(freq []float64, pts []grid.Point, p Params) (*Tensor, error) {
	n, f := len(pts), len(freq)
	t := newTensor(n, f)
	for comp := 0; comp < 3; comp++ {
		idx := componentIndices(pts, comp)
		lc := p.Lc * threeDScale[comp]
		fillPairs(t, freq, pts, idx, p.URef, lc, p.BackwardComp)
	}
	return t, nil
}

func componentIndices(pts []grid.Point, comp int) []int {
	var idx []int
	for i, pt := range pts {
		if pt.K == comp {
			idx = append(idx, i)
		}
	}
	return idx
}

// fillPairs evaluates coherence for all pairs within idx, chunkSize
// pairs at a time, and writes the symmetric entries into t.
func fillPairs(t *Tensor, freq []float64, pts []grid.Point, idx []int, uRef, lc float64, backwardComp bool) {
	type pair struct{ i, j int }
	var chunk []pair
	flush := func() {
		for _, pr := range chunk {
			pi, pj := pts[pr.i], pts[pr.j]
			r := math.Hypot(pi.Y-pj.Y, pi.Z-pj.Z)
			for fi, f := range freq {
				var c float64
				if backwardComp {
					c = math.Exp(-12 * math.Sqrt(math.Pow(r/uRef*f, 2)+math.Pow(0.12*r/lc, 2)))
				} else {
					expConst := math.Sqrt(math.Pow(f/uRef, 2) + math.Pow(0.12/lc, 2))
					c = math.Exp(-12 * r * expConst)
				}
				t.setSym(pr.i, pr.j, fi, c)
			}
		}
		chunk = chunk[:0]
	}
	for a := 0; a < len(idx); a++ {
		for b := a + 1; b < len(idx); b++ {
			chunk = append(chunk, pair{idx[a], idx[b]})
			if len(chunk) >= chunkSize {
				flush()
			}
		}
	}
	if len(chunk) > 0 {
		flush()
	}
}
