// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coherence

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/ebranlard/iea29-turb/grid"
)

func Test_coherence01(tst *testing.T) {

	chk.PrintTitle("coherence01. diagonal is 1, IEC rejects edition != 3")

	pts := []grid.Point{
		{K: grid.U, Y: 0, Z: 0},
		{K: grid.U, Y: 10, Z: 0},
	}
	freq := []float64{0.1, 0.2}
	tensor, err := Build(freq, pts, Params{Kind: IEC, Edition: 3, URef: 10, Lc: 340.2})
	if err != nil {
		tst.Errorf("Build failed: %v", err)
		return
	}
	for fi := range freq {
		chk.Scalar(tst, "diag(0,0)", 1e-15, tensor.At(0, 0, fi), 1)
		chk.Scalar(tst, "diag(1,1)", 1e-15, tensor.At(1, 1, fi), 1)
	}

	_, err = Build(freq, pts, Params{Kind: IEC, Edition: 2, URef: 10, Lc: 340.2})
	if err == nil {
		tst.Errorf("expected an error for IEC edition != 3")
	}
}

func Test_coherence02(tst *testing.T) {

	chk.PrintTitle("coherence02. coherence decays with separation and frequency")

	pts := []grid.Point{
		{K: grid.U, Y: 0, Z: 0},
		{K: grid.U, Y: 10, Z: 0},
		{K: grid.U, Y: 100, Z: 0},
	}
	freq := []float64{0.1, 1.0}
	tensor, err := Build(freq, pts, Params{Kind: IEC, Edition: 3, URef: 10, Lc: 340.2})
	if err != nil {
		tst.Errorf("Build failed: %v", err)
		return
	}
	near := tensor.At(0, 1, 0)
	far := tensor.At(0, 2, 0)
	if !(near > far) {
		tst.Errorf("expected coherence to decay with separation: near=%v far=%v", near, far)
	}
	lowF := tensor.At(0, 1, 0)
	hiF := tensor.At(0, 1, 1)
	if !(lowF > hiF) {
		tst.Errorf("expected coherence to decay with frequency: lowF=%v hiF=%v", lowF, hiF)
	}
}

func Test_coherence03(tst *testing.T) {

	chk.PrintTitle("coherence03. backward_comp numerics match the factored path")

	pts := []grid.Point{
		{K: grid.U, Y: 0, Z: 0},
		{K: grid.U, Y: 37, Z: 12},
	}
	freq := []float64{0.05, 0.3, 1.7}
	factored, err := Build(freq, pts, Params{Kind: IEC, Edition: 3, URef: 9, Lc: 340.2, BackwardComp: false})
	if err != nil {
		tst.Errorf("Build failed: %v", err)
		return
	}
	legacy, err := Build(freq, pts, Params{Kind: IEC, Edition: 3, URef: 9, Lc: 340.2, BackwardComp: true})
	if err != nil {
		tst.Errorf("Build failed: %v", err)
		return
	}
	for fi := range freq {
		chk.Scalar(tst, "factored vs legacy", 1e-12, factored.At(0, 1, fi), legacy.At(0, 1, fi))
	}
}

func Test_coherence04(tst *testing.T) {

	chk.PrintTitle("coherence04. 3D model scales length scale by component")

	pts := []grid.Point{
		{K: grid.U, Y: 0, Z: 0},
		{K: grid.U, Y: 50, Z: 0},
		{K: grid.V, Y: 0, Z: 0},
		{K: grid.V, Y: 50, Z: 0},
	}
	freq := []float64{0.2}
	tensor, err := Build(freq, pts, Params{Kind: ThreeD, URef: 10, Lc: 340.2})
	if err != nil {
		tst.Errorf("Build failed: %v", err)
		return
	}
	// u-pair and v-pair have the same geometry but different length
	// scales, so their off-diagonal coherence must differ (v decays
	// faster since its scale is smaller).
	uCoh := tensor.At(0, 1, 0)
	vCoh := tensor.At(2, 3, 0)
	if !(uCoh > vCoh) {
		tst.Errorf("expected u coherence > v coherence at same separation: u=%v v=%v", uCoh, vCoh)
	}
	// cross-component pairs are untouched (stay at their initialized
	// zero; only same-component pairs are filled).
	chk.Scalar(tst, "u-v cross pair", 1e-15, tensor.At(0, 2, 0), 0)
}

func Test_coherence05(tst *testing.T) {

	chk.PrintTitle("coherence05. unknown model kind is rejected")

	pts := []grid.Point{{K: grid.U, Y: 0, Z: 0}}
	_, err := Build([]float64{0.1}, pts, Params{Kind: Kind(99)})
	if err == nil {
		tst.Errorf("expected an error for an unknown coherence kind")
	}
}
