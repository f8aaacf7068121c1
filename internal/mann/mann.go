// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mann writes the Mann-box binary layout (one raw float32
// array per wind component, spec section 6), grounded on
// 03_TurbSim2Mann.py's MannBoxFile.fromTurbSim/write calls: one file
// per component, single precision, no header.
package mann

import (
	"encoding/binary"
	"io"

	"github.com/ebranlard/iea29-turb/turberr"
)

// WriteComponent writes one component's (nt, ny, nz) grid as
// little-endian float32, time outer / y middle / z inner, matching
// MannBoxFile's flat row-major layout.
func WriteComponent(w io.Writer, u [][][]float64) error {
	nt := len(u)
	if nt == 0 {
		return turberr.New(turberr.Precondition, "mann: empty component grid")
	}
	for it := 0; it < nt; it++ {
		for iy := range u[it] {
			for iz := range u[it][iy] {
				if err := binary.Write(w, binary.LittleEndian, float32(u[it][iy][iz])); err != nil {
					return turberr.New(turberr.IOTransient, "mann: write sample (t=%d,y=%d,z=%d): %v", it, iy, iz, err)
				}
			}
		}
	}
	return nil
}
