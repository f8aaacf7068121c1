// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package assemble turns the spectral engine's correlated Fourier
// coefficients into the final real time-series matrix (spec section
// 4.8): inverse one-sided real FFT, drop the constraint columns, add
// the mean profile.
package assemble

import (
	"github.com/ebranlard/iea29-turb/grid"
	"github.com/ebranlard/iea29-turb/profile"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// Run computes the (n_t, n_sim) output matrix from turbFFT (n_f, N),
// where the first nd columns of pts/turbFFT are the constraint points
// (dropped from the output) and the rest are the simulation points
// (kept, in order). wsp and veer are added to the u- and v-columns
// respectively, per sample row. gonum's Sequence is unnormalized, so it
// already applies the n_t factor that undoes the 1/n_t of the
// constraint FFT convention.
func Run(turbFFT *mat.CDense, nt, nd int, pts []grid.Point, wsp profile.WSPFunc, veer profile.VeerFunc, ctx profile.Context) (*mat.Dense, error) {
	nf, n := turbFFT.Dims()
	nSim := n - nd
	fft := fourier.NewFFT(nt)
	out := mat.NewDense(nt, nSim, nil)

	coeffs := make([]complex128, nf)
	simPts := pts[nd:]
	uY := make([]float64, 0, nSim)
	uZ := make([]float64, 0, nSim)
	vY := make([]float64, 0, nSim)
	vZ := make([]float64, 0, nSim)
	var uCols, vCols []int
	for col, p := range simPts {
		switch p.K {
		case grid.U:
			uCols = append(uCols, col)
			uY = append(uY, p.Y)
			uZ = append(uZ, p.Z)
		case grid.V:
			vCols = append(vCols, col)
			vY = append(vY, p.Y)
			vZ = append(vZ, p.Z)
		}
	}
	var uMean, vMean []float64
	if len(uCols) > 0 && wsp != nil {
		uMean = wsp(uY, uZ, ctx)
	}
	if len(vCols) > 0 && veer != nil {
		vMean = veer(vY, vZ, ctx)
	}

	for col := 0; col < nSim; col++ {
		for i := 0; i < nf; i++ {
			coeffs[i] = turbFFT.At(i, nd+col)
		}
		seq := fft.Sequence(nil, coeffs)
		for t := 0; t < nt; t++ {
			out.Set(t, col, seq[t])
		}
	}
	for i, col := range uCols {
		addConstant(out, col, uMean[i])
	}
	for i, col := range vCols {
		addConstant(out, col, vMean[i])
	}
	return out, nil
}

func addConstant(m *mat.Dense, col int, v float64) {
	nt, _ := m.Dims()
	for t := 0; t < nt; t++ {
		m.Set(t, col, m.At(t, col)+v)
	}
}
