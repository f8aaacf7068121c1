// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package constraint

import (
	"math"
	"strings"
	"testing"

	"github.com/cpmech/gosl/chk"
)

const sampleCSV = `k,0,0
x,0,0
y,0,10
z,0,0
0.0,1.0,2.0
0.1,1.0,2.0
0.2,1.0,2.0
0.3,1.0,2.0
`

func Test_constraint01(tst *testing.T) {

	chk.PrintTitle("constraint01. ReadCSV parses the header and data blocks")

	set, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		tst.Errorf("ReadCSV failed: %v", err)
		return
	}
	chk.IntAssert(set.NDim(), 2)
	chk.IntAssert(len(set.Points), 2)
	chk.Scalar(tst, "points[1].Y", 1e-15, set.Points[1].Y, 10)
	chk.Scalar(tst, "Dt", 1e-15, set.Dt, 0.1)

	rows, cols := set.Data.Dims()
	chk.IntAssert(rows, 4)
	chk.IntAssert(cols, 2)
	chk.Scalar(tst, "data[0,0]", 1e-15, set.Data.At(0, 0), 1.0)
}

func Test_constraint02(tst *testing.T) {

	chk.PrintTitle("constraint02. ReadCSV rejects a malformed header")

	bad := "k,0\nx,0\ny,0\n0.0,1.0\n"
	_, err := ReadCSV(strings.NewReader(bad))
	if err == nil {
		tst.Errorf("expected an error for a truncated header")
	}
}

func Test_constraint03(tst *testing.T) {

	chk.PrintTitle("constraint03. CheckTimeGrid accepts a matching grid and rejects a mismatched one")

	set, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		tst.Errorf("ReadCSV failed: %v", err)
		return
	}
	if err := set.CheckTimeGrid(4, 0.1); err != nil {
		tst.Errorf("expected matching time grid to pass: %v", err)
	}
	if err := set.CheckTimeGrid(4, 0.2); err == nil {
		tst.Errorf("expected mismatched dt to fail")
	}
	if err := set.CheckTimeGrid(5, 0.1); err == nil {
		tst.Errorf("expected mismatched sample count to fail")
	}
}

func Test_constraint04(tst *testing.T) {

	chk.PrintTitle("constraint04. TimeFFT DC row equals the channel mean")

	set, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		tst.Errorf("ReadCSV failed: %v", err)
		return
	}
	fft, err := set.TimeFFT()
	if err != nil {
		tst.Errorf("TimeFFT failed: %v", err)
		return
	}
	chk.Scalar(tst, "Re(FFT[0,0])", 1e-12, real(fft.At(0, 0)), 1.0)
	chk.Scalar(tst, "Im(FFT[0,0])", 1e-12, imag(fft.At(0, 0)), 0.0)

	mags, err := set.Magnitudes()
	if err != nil {
		tst.Errorf("Magnitudes failed: %v", err)
		return
	}
	chk.Scalar(tst, "|FFT[0,0]|", 1e-12, mags.At(0, 0), math.Hypot(real(fft.At(0, 0)), imag(fft.At(0, 0))))
}
