// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bts writes TurbSim-format binary wind boxes (spec section 6,
// "Downstream converters"), grounded on 02_ConvertExtract.py's
// ts['ID']=8 (periodic) convention. It is a thin encoder over the
// spectral engine's time-domain output, not a full TurbSim parity
// implementation: only the periodic, non-tower layout is supported.
package bts

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/ebranlard/iea29-turb/turberr"
)

// periodicID is the TurbSim file-format tag for a periodic grid (no
// tower points), matching the original_source convention.
const periodicID = int16(8)

// intScale is the fallback fixed-point slope (TurbSim's standard
// 0.05 m/s bit size), used only for a component whose values are all
// equal or absent; other components get a min/max slope.
const intScale = 0.05

// Box is the grid wind field to encode: U[comp][it][iy][iz] in m/s,
// comp in {0:u, 1:v, 2:w}.
type Box struct {
	Y, Z []float64
	Dt   float64
	ZHub float64
	U    [3][][][]float64 // [comp][it][iy][iz]
}

// Write encodes b in TurbSim binary format to w.
func Write(w io.Writer, b Box) error {
	ny, nz := len(b.Y), len(b.Z)
	if ny == 0 || nz == 0 {
		return turberr.New(turberr.Precondition, "bts: empty grid (ny=%d, nz=%d)", ny, nz)
	}
	nt := len(b.U[0])
	if nt == 0 {
		return turberr.New(turberr.Precondition, "bts: empty time series")
	}
	dy := 0.0
	if ny > 1 {
		dy = b.Y[1] - b.Y[0]
	}
	dz := 0.0
	if nz > 1 {
		dz = b.Z[1] - b.Z[0]
	}

	slope, intercept := scaleFactors(b)

	bw := &binWriter{w: w}
	bw.i16(periodicID)
	bw.i32(int32(nz))
	bw.i32(int32(ny))
	bw.i32(0) // n_tower: unsupported, always zero
	bw.i32(int32(nt))
	bw.f32(float32(dz))
	bw.f32(float32(dy))
	bw.f32(float32(b.Dt))
	bw.f32(float32(uHubEstimate(b)))
	bw.f32(float32(b.ZHub))
	bw.f32(float32(b.Z[0]))
	for c := 0; c < 3; c++ {
		bw.f32(float32(slope[c]))
		bw.f32(float32(intercept[c]))
	}
	bw.i32(0) // description length: none

	// grid order: time outer, then z, then y, then component, per the
	// standard TurbSim layout (component varies fastest, then y, then z).
	for it := 0; it < nt; it++ {
		for iz := 0; iz < nz; iz++ {
			for iy := 0; iy < ny; iy++ {
				for c := 0; c < 3; c++ {
					v := b.U[c][it][iy][iz]
					scaled := (v - intercept[c]) / slope[c]
					bw.i16(clampInt16(scaled))
				}
			}
		}
	}
	return bw.err
}

// scaleFactors computes per-component (slope, intercept) so that the
// component's range maps into the int16 span, matching TurbSim's
// min/max normalization.
func scaleFactors(b Box) (slope, intercept [3]float64) {
	for c := 0; c < 3; c++ {
		min, max := math.Inf(1), math.Inf(-1)
		for _, plane := range b.U[c] {
			for _, row := range plane {
				for _, v := range row {
					if v < min {
						min = v
					}
					if v > max {
						max = v
					}
				}
			}
		}
		if !math.IsInf(min, 0) && max > min {
			slope[c] = (max - min) / 65530.0
			intercept[c] = (max + min) / 2
		} else {
			slope[c] = intScale
			intercept[c] = 0
		}
	}
	return
}

func uHubEstimate(b Box) float64 {
	var sum float64
	var n int
	for it := range b.U[0] {
		for iy := range b.U[0][it] {
			for iz := range b.U[0][it][iy] {
				sum += b.U[0][it][iy][iz]
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func clampInt16(v float64) int16 {
	if v > 32700 {
		return 32700
	}
	if v < -32700 {
		return -32700
	}
	return int16(math.Round(v))
}

type binWriter struct {
	w   io.Writer
	err error
}

func (b *binWriter) write(v interface{}) {
	if b.err != nil {
		return
	}
	b.err = binary.Write(b.w, binary.LittleEndian, v)
}

func (b *binWriter) i16(v int16)   { b.write(v) }
func (b *binWriter) i32(v int32)   { b.write(v) }
func (b *binWriter) f32(v float32) { b.write(v) }
