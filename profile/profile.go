// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profile holds the pluggable mean-profile callables: mean wind
// speed U(y,z), optional veer V(y,z), and turbulence standard deviation
// sigma(k,y,z). All three are pure and side-effect free; the spectral
// engine invokes them on whole vectors at once.
package profile

import "math"

// Context carries the scalars a default profile needs. Pluggable
// callables take Context instead of named kwargs (spec section 9:
// "pass a typed context record").
type Context struct {
	URef   float64
	ZRef   float64
	Alpha  float64
	SigU   float64
	SigV   float64
	SigW   float64
	Class  string // IEC turbulence class, e.g. "B"
}

// WSPFunc returns mean wind speed in m/s at each (y,z).
type WSPFunc func(y, z []float64, ctx Context) []float64

// VeerFunc returns veer (additive v-component mean) in m/s at each (y,z).
type VeerFunc func(y, z []float64, ctx Context) []float64

// SigFunc returns turbulence standard deviation in m/s for component k
// at each (y,z).
type SigFunc func(k []int, y, z []float64, ctx Context) []float64

// PowerLawWSP is the default mean wind speed profile: u_ref*(z/z_ref)^alpha.
func PowerLawWSP(y, z []float64, ctx Context) []float64 {
	out := make([]float64, len(z))
	for i, zi := range z {
		out[i] = ctx.URef * math.Pow(zi/ctx.ZRef, ctx.Alpha)
	}
	return out
}

// ZeroVeer is the default veer profile: no veer.
func ZeroVeer(y, z []float64, ctx Context) []float64 {
	return make([]float64, len(z))
}

// iecIref holds the IEC 61400-1 reference turbulence intensity I_ref
// (Table 1) for each turbulence category, keyed by class letter.
var iecIref = map[string]float64{
	"A": 0.16,
	"B": 0.14,
	"C": 0.12,
}

// IECSigB is the default sigma(k,y,z) profile: IEC turbulence standard
// deviation for ctx.Class (class B if unset or unrecognized), constant
// with height, equal across components except a reduced factor for v
// and w per IEC 61400-1 Annex B.
func IECSigB(k []int, y, z []float64, ctx Context) []float64 {
	iref, ok := iecIref[ctx.Class]
	if !ok {
		iref = iecIref["B"]
	}
	sigU := iref * (0.75*ctx.URef + 5.6)
	out := make([]float64, len(k))
	for i, ki := range k {
		switch ki {
		case 0:
			out[i] = sigU
		case 1:
			out[i] = 0.8 * sigU
		default:
			out[i] = 0.5 * sigU
		}
	}
	return out
}
