// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package checkpoint implements the per-frequency on-disk persistence
// that lets the spectral engine run across independent worker
// processes (spec section 4.7). Each positive frequency gets its own
// file; the filename itself is the synchronization token, matching
// pyconturb's save_freq_data/load_freq_data/delete_freq_data.
package checkpoint

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/ebranlard/iea29-turb/turberr"
	"github.com/spf13/afero"
	"gonum.org/v1/gonum/mat"
)

// magic identifies a valid frequency checkpoint file.
var magic = [8]byte{'p', 'y', 'C', 'o', 'n', 'T', 'u', 'b'}

// backoff policy for the combine retry loop (spec section 4.7/5):
// base 10s, doubling, capped at 5 minutes, total deadline 1 hour.
const (
	backoffBase = 10 * time.Second
	backoffCap  = 5 * time.Minute
	combineTotal = time.Hour
)

// Store is the filesystem-backed per-frequency checkpoint store. FS is
// an afero.Fs so it can be backed by an in-memory filesystem in tests.
type Store struct {
	FS     afero.Fs
	Prefix string
}

// New returns a Store rooted at the OS filesystem.
func New(prefix string) *Store {
	return &Store{FS: afero.NewOsFs(), Prefix: prefix}
}

func (s *Store) filename(i int) string {
	return fmt.Sprintf("%spyConTurb_%d.pkl", s.Prefix, i)
}

// Exists reports whether frequency i's checkpoint file is already
// present, so a worker can skip recomputing it.
func (s *Store) Exists(i int) bool {
	ok, _ := afero.Exists(s.FS, s.filename(i))
	return ok
}

// Write persists cor (length N) for frequency i, writing to a temp
// file and renaming atomically so readers never see a partial file.
// Write errors are swallowed by the caller's policy (another worker
// will produce the file); Write itself still reports the error so
// callers can log it.
func (s *Store) Write(i int, cor []complex128) error {
	var buf bytes.Buffer
	buf.Write(magic[:])
	if err := binary.Write(&buf, binary.LittleEndian, int64(len(cor))); err != nil {
		return turberr.New(turberr.IOTransient, "checkpoint: encode frequency %d: %v", i, err)
	}
	for _, c := range cor {
		if err := binary.Write(&buf, binary.LittleEndian, real(c)); err != nil {
			return turberr.New(turberr.IOTransient, "checkpoint: encode frequency %d: %v", i, err)
		}
		if err := binary.Write(&buf, binary.LittleEndian, imag(c)); err != nil {
			return turberr.New(turberr.IOTransient, "checkpoint: encode frequency %d: %v", i, err)
		}
	}
	tmp := s.filename(i) + ".tmp"
	if err := afero.WriteFile(s.FS, tmp, buf.Bytes(), 0644); err != nil {
		return turberr.New(turberr.IOTransient, "checkpoint: write frequency %d: %v", i, err)
	}
	if err := s.FS.Rename(tmp, s.filename(i)); err != nil {
		return turberr.New(turberr.IOTransient, "checkpoint: rename frequency %d: %v", i, err)
	}
	return nil
}

// Read loads frequency i's correlated Fourier vector.
func (s *Store) Read(i int) ([]complex128, error) {
	b, err := afero.ReadFile(s.FS, s.filename(i))
	if err != nil {
		return nil, turberr.New(turberr.IOTransient, "checkpoint: read frequency %d: %v", i, err)
	}
	if len(b) < 16 || !bytes.Equal(b[:8], magic[:]) {
		return nil, turberr.New(turberr.IOPermanent, "checkpoint: frequency %d file is corrupt (bad magic)", i)
	}
	n := int(binary.LittleEndian.Uint64(b[8:16]))
	want := 16 + n*16
	if len(b) != want {
		return nil, turberr.New(turberr.IOPermanent, "checkpoint: frequency %d file has %d bytes, want %d", i, len(b), want)
	}
	out := make([]complex128, n)
	r := bytes.NewReader(b[16:])
	for k := 0; k < n; k++ {
		var re, im float64
		if err := binary.Read(r, binary.LittleEndian, &re); err != nil {
			return nil, turberr.New(turberr.IOPermanent, "checkpoint: frequency %d: %v", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &im); err != nil {
			return nil, turberr.New(turberr.IOPermanent, "checkpoint: frequency %d: %v", i, err)
		}
		out[k] = complex(re, im)
	}
	return out, nil
}

// ShuffleOrder returns the indices [1, nf) in random order, so that
// two workers processing the same input are unlikely to pick the same
// frequency next (spec section 4.7 step 1). rng is independent from
// the phase-draw PRNG (spec section 5 "Shared state").
func ShuffleOrder(nf int, rng *rand.Rand) []int {
	idx := make([]int, 0, nf-1)
	for i := 1; i < nf; i++ {
		idx = append(idx, i)
	}
	rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
	return idx
}

// Combine waits for every frequency in [1, nf) to be present, retrying
// missing or transiently unreadable files with bounded exponential
// backoff until the combine deadline, then assembles the
// full (nf, n) correlated Fourier matrix. Row 0 is left zero (DC).
func Combine(ctx context.Context, s *Store, nf, n int) (*mat.CDense, error) {
	ctx, cancel := context.WithTimeout(ctx, combineTotal)
	defer cancel()

	delay := backoffBase
	for {
		missing := 0
		for i := 1; i < nf; i++ {
			if !s.Exists(i) {
				missing++
			}
		}
		if missing == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, turberr.New(turberr.IOPermanent, "checkpoint: combine timed out with %d/%d frequencies still missing", missing, nf-1)
		case <-time.After(delay):
		}
		if delay < backoffCap {
			delay *= 2
			if delay > backoffCap {
				delay = backoffCap
			}
		}
	}

	out := mat.NewCDense(nf, n, nil)
	for i := 1; i < nf; i++ {
		vec, err := s.Read(i)
		for err != nil && turberr.Is(err, turberr.IOTransient) {
			select {
			case <-ctx.Done():
				return nil, turberr.New(turberr.IOPermanent, "checkpoint: combine timed out reading frequency %d: %v", i, err)
			case <-time.After(delay):
			}
			vec, err = s.Read(i)
		}
		if err != nil {
			return nil, err
		}
		if len(vec) != n {
			return nil, turberr.New(turberr.IOPermanent, "checkpoint: frequency %d has %d values, want %d", i, len(vec), n)
		}
		for j, v := range vec {
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// Delete removes every frequency's checkpoint file after a successful
// combine. Individual delete failures are collected and returned, not
// treated as fatal, matching pyconturb's delete_freq_data.
func (s *Store) Delete(nf int) []error {
	var errs []error
	for i := 1; i < nf; i++ {
		if err := s.FS.Remove(s.filename(i)); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
