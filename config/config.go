// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the closed set of recognized run options (spec
// section 9, "Configuration"), validated once at run start, the same
// way gofem's inp.Simulation is read once and validated before the
// solver runs.
package config

import (
	"github.com/ebranlard/iea29-turb/coherence"
	"github.com/ebranlard/iea29-turb/turberr"
)

// DType selects the working precision for magnitudes/Fourier data.
type DType int

const (
	Float64 DType = iota
	Float32
)

// InterpSet names which profile quantities are interpolated from
// constraint data instead of using the default closed-form profiles.
type InterpSet struct {
	WSP  bool
	Sig  bool
	Spec bool
}

// None is the "no interpolation" InterpSet (IEC defaults everywhere).
var None = InterpSet{}

// All is the "interpolate everything" InterpSet.
var All = InterpSet{WSP: true, Sig: true, Spec: true}

// RunConfig is the closed configuration surface of a generation run.
type RunConfig struct {
	CohModel        coherence.Kind
	Edition         int
	Interp          InterpSet
	Seed            int64
	DType           DType
	NFChunk         int
	WriteFreqData   bool
	CombineFreqData bool
	Prefix          string
	BackwardComp    bool
	Verbose         bool
}

// Default returns a RunConfig with the spec's defaults: IEC edition 3
// coherence, no interpolation, a chunk size of 1, checkpointing off.
func Default() RunConfig {
	return RunConfig{
		CohModel: coherence.IEC,
		Edition:  3,
		Interp:   None,
		DType:    Float64,
		NFChunk:  1,
	}
}

// Validate checks the closed option set (spec section 9). It does not
// check run-specific values like grid dimensions; callers validate
// those where they are constructed.
func (c RunConfig) Validate() error {
	if c.CohModel == coherence.IEC && c.Edition != 3 {
		return turberr.New(turberr.Precondition, "config: IEC coherence requires edition 3, got %d", c.Edition)
	}
	if c.NFChunk < 1 {
		return turberr.New(turberr.Precondition, "config: nf_chunk must be >= 1, got %d", c.NFChunk)
	}
	if c.CombineFreqData && !c.WriteFreqData {
		return turberr.New(turberr.Precondition, "config: combine_freq_data requires write_freq_data")
	}
	return nil
}

// Requested reports whether any profile is selected for data
// interpolation (spec section 9's interp_data option).
func (i InterpSet) Requested() bool {
	return i.WSP || i.Sig || i.Spec
}
