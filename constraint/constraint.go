// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package constraint holds measured time series that the generated
// field must reproduce exactly at their points (spec section 4.5).
// CSV ingestion is a thin external collaborator (spec section 1); it
// lives here because the Set it produces is otherwise pure Go.
package constraint

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/ebranlard/iea29-turb/grid"
	"github.com/ebranlard/iea29-turb/turberr"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// headerRows are the four fixed index labels that must open the CSV,
// in order.
var headerRows = [4]string{"k", "x", "y", "z"}

// Set holds the constrained points and their measured time series.
type Set struct {
	Points []grid.Point
	Time   []float64   // t = dt * [0..n_t)
	Dt     float64
	Data   *mat.Dense // (n_t, n_d)
}

// NDim returns the number of constrained channels (n_d).
func (s *Set) NDim() int {
	if s == nil || s.Data == nil {
		return 0
	}
	_, c := s.Data.Dims()
	return c
}

// ReadCSV parses a constraint table: the first four rows carry the
// index labels k,x,y,z (one column per channel), and the remaining
// rows are numeric data indexed by time in seconds. A non-numeric
// index value other than {k,x,y,z} is a precondition error.
func ReadCSV(r io.Reader) (*Set, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, turberr.New(turberr.Precondition, "constraint CSV: %v", err)
	}
	if len(records) < 5 {
		return nil, turberr.New(turberr.Precondition, "constraint CSV: expected at least 4 header rows and 1 data row, got %d rows", len(records))
	}
	nd := len(records[0]) - 1
	if nd <= 0 {
		return nil, turberr.New(turberr.Precondition, "constraint CSV: no data columns found")
	}
	for h, row := range records[:4] {
		if row[0] != headerRows[h] {
			return nil, turberr.New(turberr.Precondition, "constraint CSV: row %d must be labeled %q, got %q", h, headerRows[h], row[0])
		}
	}
	pts := make([]grid.Point, nd)
	ks, err := parseRow(records[0][1:])
	if err != nil {
		return nil, turberr.New(turberr.Precondition, "constraint CSV: bad k row: %v", err)
	}
	xs, err := parseRow(records[1][1:])
	if err != nil {
		return nil, turberr.New(turberr.Precondition, "constraint CSV: bad x row: %v", err)
	}
	ys, err := parseRow(records[2][1:])
	if err != nil {
		return nil, turberr.New(turberr.Precondition, "constraint CSV: bad y row: %v", err)
	}
	zs, err := parseRow(records[3][1:])
	if err != nil {
		return nil, turberr.New(turberr.Precondition, "constraint CSV: bad z row: %v", err)
	}
	for i := range pts {
		pts[i] = grid.Point{K: int(ks[i]), X: xs[i], Y: ys[i], Z: zs[i]}
	}

	dataRows := records[4:]
	nt := len(dataRows)
	times := make([]float64, nt)
	data := mat.NewDense(nt, nd, nil)
	for t, row := range dataRows {
		tv, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, turberr.New(turberr.Precondition, "constraint CSV: non-numeric time index %q at row %d", row[0], t)
		}
		times[t] = tv
		vals, err := parseRow(row[1:])
		if err != nil {
			return nil, turberr.New(turberr.Precondition, "constraint CSV: %v at time row %d", err, t)
		}
		for c, v := range vals {
			data.Set(t, c, v)
		}
	}
	var dt float64
	if nt > 1 {
		dt = times[1] - times[0]
	}
	return &Set{Points: pts, Time: times, Dt: dt, Data: data}, nil
}

func parseRow(row []string) ([]float64, error) {
	out := make([]float64, len(row))
	var err error
	for i, s := range row {
		out[i], err = strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CheckTimeGrid verifies the constraint's time axis matches the
// engine's n_t/dt within floating tolerance (spec section 4.5
// invariant); mismatch is a fatal precondition error.
func (s *Set) CheckTimeGrid(nt int, dt float64) error {
	if s == nil || s.Data == nil {
		return nil
	}
	rows, _ := s.Data.Dims()
	if rows != nt {
		return turberr.New(turberr.Precondition, "constraint time grid has %d samples, expected n_t=%d", rows, nt)
	}
	const tol = 1e-9
	for i, t := range s.Time {
		want := float64(i) * dt
		if math.Abs(t-want) > tol*(1+math.Abs(want)) {
			return turberr.New(turberr.Precondition, "constraint time grid mismatch at index %d: got %v, want %v", i, t, want)
		}
	}
	return nil
}

// TimeFFT returns the one-sided FFT of the constraint time matrix
// divided by n_t, shape (n_f, n_d).
func (s *Set) TimeFFT() (*mat.CDense, error) {
	nt, nd := s.Data.Dims()
	if nt == 0 {
		return mat.NewCDense(0, nd, nil), nil
	}
	fft := fourier.NewFFT(nt)
	nf := nt/2 + 1
	out := mat.NewCDense(nf, nd, nil)
	col := make([]float64, nt)
	for c := 0; c < nd; c++ {
		for t := 0; t < nt; t++ {
			col[t] = s.Data.At(t, c)
		}
		coeffs := fft.Coefficients(nil, col)
		for i, v := range coeffs {
			out.Set(i, c, v/complex(float64(nt), 0))
		}
	}
	return out, nil
}

// Magnitudes returns |TimeFFT()|.
func (s *Set) Magnitudes() (*mat.Dense, error) {
	cfft, err := s.TimeFFT()
	if err != nil {
		return nil, err
	}
	r, c := cfft.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, cmplxAbs(cfft.At(i, j)))
		}
	}
	return out, nil
}

func cmplxAbs(z complex128) float64 {
	return math.Hypot(real(z), imag(z))
}
