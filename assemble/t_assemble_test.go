// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assemble

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/ebranlard/iea29-turb/grid"
	"github.com/ebranlard/iea29-turb/profile"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

func Test_assemble01(tst *testing.T) {

	chk.PrintTitle("assemble01. Run adds the mean profile and drops constraint columns")

	nt := 8
	nf := nt/2 + 1
	// one constraint column (dropped) + one U point + one V point
	pts := []grid.Point{
		{K: grid.U, Y: 0, Z: 90}, // constraint, nd=1
		{K: grid.U, Y: 10, Z: 90},
		{K: grid.V, Y: 10, Z: 90},
	}
	nd := 1

	fft := fourier.NewFFT(nt)
	zeroTime := make([]float64, nt)
	zeroCoeffs := fft.Coefficients(nil, zeroTime)

	turbFFT := mat.NewCDense(nf, len(pts), nil)
	for i := 0; i < nf; i++ {
		turbFFT.Set(i, 0, zeroCoeffs[i]) // constraint column: irrelevant, dropped
		turbFFT.Set(i, 1, zeroCoeffs[i]) // u sim column: flat zero series
		turbFFT.Set(i, 2, zeroCoeffs[i]) // v sim column: flat zero series
	}

	ctx := profile.Context{URef: 10, ZRef: 90, Alpha: 0.2}
	out, err := Run(turbFFT, nt, nd, pts, profile.PowerLawWSP, profile.ZeroVeer, ctx)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
		return
	}
	r, c := out.Dims()
	chk.IntAssert(r, nt)
	chk.IntAssert(c, 2) // constraint column dropped

	for t := 0; t < nt; t++ {
		chk.Scalar(tst, "u(t) == u_ref", 1e-10, out.At(t, 0), 10)
		chk.Scalar(tst, "v(t) == 0 (zero veer)", 1e-10, out.At(t, 1), 0)
	}
}
