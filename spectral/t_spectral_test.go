// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spectral

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/ebranlard/iea29-turb/coherence"
	"github.com/ebranlard/iea29-turb/config"
	"github.com/ebranlard/iea29-turb/constraint"
	"github.com/ebranlard/iea29-turb/grid"
	"github.com/ebranlard/iea29-turb/profile"
	"github.com/ebranlard/iea29-turb/turberr"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

func baseInput(sim []grid.Point, con *constraint.Set) Input {
	return Input{
		SimPoints: sim,
		Con:       con,
		Coh:       coherence.Params{Kind: coherence.IEC, Edition: 3, URef: 10, Lc: 340.2},
		Cfg:       config.Default(),
		ProfCtx:   profile.Context{URef: 10, ZRef: 50, Alpha: 0.2, Class: "B"},
		Lambda1:   42,
		WSP:       profile.PowerLawWSP,
		Veer:      profile.ZeroVeer,
		Sig:       profile.IECSigB,
		T:         60,
		Dt:        0.1,
	}
}

func Test_spectral01(tst *testing.T) {

	chk.PrintTitle("spectral01. single point, no constraints: plan and result shape")

	sim := []grid.Point{{K: grid.U, Y: 0, Z: 50}}
	in := baseInput(sim, nil)
	in.Cfg.Seed = 12

	res, err := Run(context.Background(), in)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
		return
	}
	plan := PlanFrequencies(in.T, in.Dt)
	chk.IntAssert(plan.Nt, 600)
	r, c := res.TurbFFT.Dims()
	chk.IntAssert(r, plan.Nf)
	chk.IntAssert(c, 1)
	chk.IntAssert(res.Nd, 0)
}

func Test_spectral02(tst *testing.T) {

	chk.PrintTitle("spectral02. constraint exactness: the constrained column reproduces the measured series exactly")

	nt := 1000
	dt := 0.1
	time := make([]float64, nt)
	data := mat.NewDense(nt, 1, nil)
	for t := 0; t < nt; t++ {
		tt := float64(t) * dt
		time[t] = tt
		data.Set(t, 0, math.Sin(2*math.Pi*0.1*tt))
	}
	con := &constraint.Set{
		Points: []grid.Point{{K: grid.U, Y: 0, Z: 50}},
		Time:   time,
		Dt:     dt,
		Data:   data,
	}
	sim := []grid.Point{{K: grid.U, Y: 10, Z: 50}}
	in := baseInput(sim, con)
	in.Cfg.Seed = 12
	in.T = float64(nt) * dt
	in.Dt = dt

	res, err := Run(context.Background(), in)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
		return
	}
	chk.IntAssert(res.Nd, 1)

	// inverse-FFT the constrained column (column 0) back to the time
	// domain and compare against the measured series. Sequence is
	// unnormalized, which cancels TimeFFT's division by n_t.
	nf, _ := res.TurbFFT.Dims()
	coeffs := make([]complex128, nf)
	for i := 0; i < nf; i++ {
		coeffs[i] = res.TurbFFT.At(i, 0)
	}
	fft := fourier.NewFFT(nt)
	seq := fft.Sequence(nil, coeffs)
	for _, t := range []int{0, 500} {
		got := seq[t]
		chk.Scalar(tst, "reconstructed constraint series", 1e-8, got, data.At(t, 0))
	}
}

func Test_spectral03(tst *testing.T) {

	chk.PrintTitle("spectral03. colocation skip: an all-collocated grid is reported as Degenerate")

	con := &constraint.Set{
		Points: []grid.Point{{K: grid.U, Y: 0, Z: 50}},
		Time:   []float64{0, 0.1},
		Dt:     0.1,
		Data:   mat.NewDense(2, 1, []float64{1, 2}),
	}
	sim := []grid.Point{{K: grid.U, Y: 0, Z: 50}} // colocated with the constraint
	in := baseInput(sim, con)
	in.T = 0.2
	in.Dt = 0.1

	_, err := Run(context.Background(), in)
	if err == nil {
		tst.Errorf("expected a degenerate error when every sim point is collocated")
		return
	}
	// Degenerate is reported via the turberr taxonomy, not a bare error.
	if !turberr.Is(err, turberr.Degenerate) {
		tst.Errorf("expected Degenerate, got %v", err)
	}
}

func Test_spectral04(tst *testing.T) {

	chk.PrintTitle("spectral04. nyquist snap: the last frequency row is real for every column when n_t is even")

	sim := []grid.Point{
		{K: grid.U, Y: 0, Z: 50},
		{K: grid.U, Y: 10, Z: 50},
		{K: grid.U, Y: 20, Z: 50},
	}
	in := baseInput(sim, nil)
	in.Cfg.Seed = 3
	in.T = 10.0
	in.Dt = 0.1 // n_t = 100, even

	res, err := Run(context.Background(), in)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
		return
	}
	plan := PlanFrequencies(in.T, in.Dt)
	chk.IntAssert(plan.Nt%2, 0)
	_, n := res.TurbFFT.Dims()
	for j := 0; j < n; j++ {
		v := res.TurbFFT.At(plan.Nf-1, j)
		chk.Scalar(tst, "Im(turb_fft[nf-1,j])", 1e-9, imag(v), 0)
	}
}

func Test_spectral05(tst *testing.T) {

	chk.PrintTitle("spectral05. chunk-size equivalence: nf_chunk=1 and nf_chunk=4 runs agree")

	sim := []grid.Point{
		{K: grid.U, Y: 0, Z: 50},
		{K: grid.U, Y: 10, Z: 50},
		{K: grid.V, Y: 0, Z: 50},
	}
	in1 := baseInput(sim, nil)
	in1.Cfg.Seed = 99
	in1.Cfg.NFChunk = 1
	in2 := baseInput(sim, nil)
	in2.Cfg.Seed = 99
	in2.Cfg.NFChunk = 4

	res1, err := Run(context.Background(), in1)
	if err != nil {
		tst.Errorf("Run (chunk=1) failed: %v", err)
		return
	}
	res2, err := Run(context.Background(), in2)
	if err != nil {
		tst.Errorf("Run (chunk=4) failed: %v", err)
		return
	}
	r, c := res1.TurbFFT.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a, b := res1.TurbFFT.At(i, j), res2.TurbFFT.At(i, j)
			chk.Scalar(tst, "turb_fft agreement across chunk sizes", 1e-9, real(a), real(b))
			chk.Scalar(tst, "turb_fft agreement across chunk sizes (im)", 1e-9, imag(a), imag(b))
		}
	}
}

func Test_spectral06(tst *testing.T) {

	chk.PrintTitle("spectral06. a lone constraint point with no sim points is degenerate, not a one-point solve")

	con := &constraint.Set{
		Points: []grid.Point{{K: grid.U, Y: 0, Z: 50}},
		Time:   []float64{0, 0.1, 0.2, 0.3},
		Dt:     0.1,
		Data:   mat.NewDense(4, 1, []float64{0, 0, 0, 0}),
	}
	in := baseInput(nil, con)
	in.T = 0.4
	in.Dt = 0.1

	_, err := Run(context.Background(), in)
	if err == nil {
		tst.Errorf("expected a degenerate error when the only point is the constraint itself")
		return
	}
	if !turberr.Is(err, turberr.Degenerate) {
		tst.Errorf("expected Degenerate, got %v", err)
	}
}

func Test_spectral07(tst *testing.T) {

	chk.PrintTitle("spectral07. checkpointed run combines to the same turb_fft as an in-memory run")

	sim := []grid.Point{
		{K: grid.U, Y: 0, Z: 50},
		{K: grid.U, Y: 10, Z: 50},
	}
	inMem := baseInput(sim, nil)
	inMem.Cfg.Seed = 7
	memRes, err := Run(context.Background(), inMem)
	if err != nil {
		tst.Errorf("in-memory Run failed: %v", err)
		return
	}

	dir, err := os.MkdirTemp("", "turbgen-checkpoint-")
	if err != nil {
		tst.Errorf("MkdirTemp failed: %v", err)
		return
	}
	defer os.RemoveAll(dir)

	inCkpt := baseInput(sim, nil)
	inCkpt.Cfg.Seed = 7
	inCkpt.Cfg.WriteFreqData = true
	inCkpt.Cfg.CombineFreqData = true
	inCkpt.Cfg.Prefix = dir + string(os.PathSeparator)

	ckptRes, err := Run(context.Background(), inCkpt)
	if err != nil {
		tst.Errorf("checkpointed Run failed: %v", err)
		return
	}

	r, c := memRes.TurbFFT.Dims()
	for i := 1; i < r; i++ {
		for j := 0; j < c; j++ {
			a, b := memRes.TurbFFT.At(i, j), ckptRes.TurbFFT.At(i, j)
			chk.Scalar(tst, "checkpointed vs in-memory (re)", 1e-9, real(a), real(b))
			chk.Scalar(tst, "checkpointed vs in-memory (im)", 1e-9, imag(a), imag(b))
		}
	}
}

func Test_spectral08(tst *testing.T) {

	chk.PrintTitle("spectral08. interp_data requires a constraint set")

	sim := []grid.Point{{K: grid.U, Y: 0, Z: 50}}
	in := baseInput(sim, nil)
	in.Cfg.Interp.WSP = true

	_, err := Run(context.Background(), in)
	if err == nil {
		tst.Errorf("expected an error when interp_data is set without a constraint set")
		return
	}
	if !turberr.Is(err, turberr.Precondition) {
		tst.Errorf("expected Precondition, got %v", err)
	}
}

func Test_spectral09(tst *testing.T) {

	chk.PrintTitle("spectral09. interp_data=wsp resolves the interpolated profile into the result")

	nt := 20
	dt := 0.1
	time := make([]float64, nt)
	data := mat.NewDense(nt, 1, nil)
	for t := 0; t < nt; t++ {
		time[t] = float64(t) * dt
		// zero-mean impulse: energy at every positive frequency keeps
		// Sigma positive definite, and the column mean is 0
		v := -1.0 / float64(nt-1)
		if t == 0 {
			v = 1
		}
		data.Set(t, 0, v)
	}
	con := &constraint.Set{
		Points: []grid.Point{{K: grid.U, Y: 0, Z: 90}},
		Time:   time,
		Dt:     dt,
		Data:   data,
	}
	sim := []grid.Point{{K: grid.U, Y: 0, Z: 90}} // colocated, so n == nd unless we add another
	in := baseInput(append(sim, grid.Point{K: grid.U, Y: 0, Z: 150}), con)
	in.T = float64(nt) * dt
	in.Dt = dt
	in.Cfg.Interp.WSP = true

	res, err := Run(context.Background(), in)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
		return
	}
	// ResolveProfiles must have swapped in the DataInterp WSP, not the
	// caller-supplied PowerLawWSP, so the assembled mean at z=150 should
	// equal the (zero-mean) constraint's interpolated mean,
	// not the power-law value.
	got := res.WSP([]float64{0}, []float64{150}, in.ProfCtx)[0]
	chk.Scalar(tst, "resolved WSP is the data-interpolated profile", 1e-12, got, 0)
}
