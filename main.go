// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// turbgen is the CLI entry point for the constrained synthetic
// turbulence generator (spec section 6): it wires SpatialGrid,
// ConstraintSet, CoherenceModel, MagnitudeModel, ProfileModels and
// RunConfig into a single spectral.Run, assembles the time-domain
// output, and writes it out.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/ebranlard/iea29-turb/assemble"
	"github.com/ebranlard/iea29-turb/coherence"
	"github.com/ebranlard/iea29-turb/config"
	"github.com/ebranlard/iea29-turb/constraint"
	"github.com/ebranlard/iea29-turb/grid"
	"github.com/ebranlard/iea29-turb/profile"
	"github.com/ebranlard/iea29-turb/spectral"
	"github.com/ebranlard/iea29-turb/turberr"
	"gonum.org/v1/gonum/mat"
)

func main() {
	code := 0
	defer func() {
		if r := recover(); r != nil {
			chk.Verbose = true
			io.Pfred("ERROR: %v\n", r)
			os.Exit(1)
		}
		os.Exit(code)
	}()

	cmd := ""
	if len(os.Args) > 1 && !strings.HasPrefix(os.Args[1], "-") {
		cmd = os.Args[1]
		os.Args = append(os.Args[:1], os.Args[2:]...)
	}
	if cmd != "generate" {
		chk.Panic("usage: turbgen generate --case <id> --grid ny,nz --out <prefix> [--chunk i/n] [--combine]")
	}

	var (
		caseID     = flag.String("case", "", "case identifier, echoed into log output")
		gridSpec   = flag.String("grid", "", "ny,nz simulation grid shape")
		yRange     = flag.String("yrange", "-100,100", "ymin,ymax in meters")
		zRange     = flag.String("zrange", "10,200", "zmin,zmax in meters")
		out        = flag.String("out", "", "output file prefix")
		conPath    = flag.String("constraint", "", "optional constraint CSV path")
		chunkArg   = flag.String("chunk", "", "i/n: worker id for logging; enables checkpointed mode")
		combine    = flag.Bool("combine", false, "combine per-frequency checkpoint files into the final output")
		cohKind    = flag.String("coherence", "iec", "iec or 3d")
		interpSpec = flag.String("interp-data", "none", "none, all, or comma list of wsp,sig,spec to interpolate from constraint data instead of the closed-form profiles")
		backward   = flag.Bool("backward-compat", false, "use the legacy per-pair coherence numerics")
		uRef       = flag.Float64("uref", 10.0, "reference mean wind speed (m/s)")
		zRef       = flag.Float64("zref", 90.0, "reference height (m)")
		alpha      = flag.Float64("alpha", 0.2, "power-law shear exponent")
		lambda1    = flag.Float64("lambda1", 42.0, "Kaimal integral length scale parameter")
		lc         = flag.Float64("lc", 340.2, "coherence decay length scale")
		seed       = flag.Int64("seed", 1, "phase PRNG seed")
		duration   = flag.Float64("T", 600.0, "simulation duration in seconds")
		dt         = flag.Float64("dt", 0.05, "sample period in seconds")
		verbose    = flag.Bool("verbose", true, "print progress messages")
	)
	flag.Parse()

	cfg := config.Default()
	cfg.Seed = *seed
	cfg.BackwardComp = *backward
	cfg.Prefix = *out
	cfg.Verbose = *verbose
	switch *cohKind {
	case "iec":
		cfg.CohModel = coherence.IEC
	case "3d":
		cfg.CohModel = coherence.ThreeD
	default:
		chk.Panic("unknown --coherence %q (want iec or 3d)", *cohKind)
	}

	// --chunk i/n identifies this worker for logging only: the
	// checkpoint store coordinates workers by shuffled order and
	// skip-if-exists (spec section 4.7), not by static partitioning, so
	// every worker runs the same loop regardless of i/n.
	if *chunkArg != "" {
		workerI, workerN, err := parseChunk(*chunkArg)
		if err != nil {
			chk.Panic("%v", err)
		}
		cfg.WriteFreqData = true
		cfg.CombineFreqData = *combine
		if *verbose {
			io.Pf("worker %d/%d, checkpoint prefix %s\n", workerI, workerN, *out)
		}
	} else if *combine {
		cfg.WriteFreqData = true
		cfg.CombineFreqData = true
	}

	interp, ierr := parseInterp(*interpSpec)
	if ierr != nil {
		code = turberr.ExitCode(ierr)
		io.Pfred("ERROR: %v\n", ierr)
		return
	}
	cfg.Interp = interp

	if err := cfg.Validate(); err != nil {
		code = turberr.ExitCode(err)
		io.Pfred("ERROR: %v\n", err)
		return
	}

	ny, nz, err := parseGrid(*gridSpec)
	if err != nil {
		chk.Panic("%v", err)
	}
	ymin, ymax, err := parsePair(*yRange)
	if err != nil {
		chk.Panic("--yrange: %v", err)
	}
	zmin, zmax, err := parsePair(*zRange)
	if err != nil {
		chk.Panic("--zrange: %v", err)
	}
	simPts := grid.New(ymin, ymax, ny, zmin, zmax, nz)

	var con *constraint.Set
	if *conPath != "" {
		f, ferr := os.Open(*conPath)
		if ferr != nil {
			chk.Panic("--constraint: %v", ferr)
		}
		defer f.Close()
		con, err = constraint.ReadCSV(f)
		if err != nil {
			code = turberr.ExitCode(err)
			io.Pfred("ERROR: %v\n", err)
			return
		}
	}

	ctx := profile.Context{URef: *uRef, ZRef: *zRef, Alpha: *alpha, Class: "B"}

	if *verbose {
		io.Pf("turbgen case=%s grid=%dx%d points T=%.1fs dt=%.3fs\n", *caseID, ny, nz, *duration, *dt)
	}

	in := spectral.Input{
		SimPoints: simPts,
		Con:       con,
		Coh: coherence.Params{
			Kind:         cfg.CohModel,
			Edition:      cfg.Edition,
			URef:         *uRef,
			Lc:           *lc,
			BackwardComp: cfg.BackwardComp,
		},
		Cfg:     cfg,
		ProfCtx: ctx,
		Lambda1: *lambda1,
		WSP:     profile.PowerLawWSP,
		Veer:    profile.ZeroVeer,
		Sig:     profile.IECSigB,
		T:       *duration,
		Dt:      *dt,
	}

	result, err := spectral.Run(context.Background(), in)
	if err != nil {
		code = turberr.ExitCode(err)
		io.Pfred("ERROR: %v\n", err)
		return
	}
	if result == nil {
		// checkpointed, not combined: this worker's share is written to
		// disk and there is nothing further to assemble yet.
		if *verbose {
			io.Pfgreen("frequency chunk written to %s*\n", cfg.Prefix)
		}
		return
	}

	outMat, err := assemble.Run(result.TurbFFT, result.Nt, result.Nd, result.Points, result.WSP, result.Veer, in.ProfCtx)
	if err != nil {
		code = turberr.ExitCode(err)
		io.Pfred("ERROR: %v\n", err)
		return
	}

	if *out != "" {
		if err := writeCSV(*out+".csv", outMat, result.Points[result.Nd:], *dt); err != nil {
			chk.Panic("write output: %v", err)
		}
	}
	if *verbose {
		io.Pfgreen("done: %s.csv\n", *out)
	}
}

func parseGrid(s string) (ny, nz int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--grid must be ny,nz, got %q", s)
	}
	ny, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("--grid: %v", err)
	}
	nz, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("--grid: %v", err)
	}
	return ny, nz, nil
}

func parsePair(s string) (lo, hi float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("must be lo,hi, got %q", s)
	}
	lo, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	hi, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func parseChunk(s string) (i, n int, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--chunk must be i/n, got %q", s)
	}
	i, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	n, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if i < 0 || n < 1 || i >= n {
		return 0, 0, fmt.Errorf("--chunk %q out of range", s)
	}
	return i, n, nil
}

// parseInterp parses --interp-data's "none", "all", or comma list of
// {wsp,sig,spec} into a config.InterpSet (spec section 9's interp_data
// option; spec section 7's dedicated precondition error for it).
func parseInterp(s string) (config.InterpSet, error) {
	switch s {
	case "", "none":
		return config.None, nil
	case "all":
		return config.All, nil
	}
	var out config.InterpSet
	for _, tok := range strings.Split(s, ",") {
		switch strings.TrimSpace(tok) {
		case "wsp":
			out.WSP = true
		case "sig":
			out.Sig = true
		case "spec":
			out.Spec = true
		default:
			return config.InterpSet{}, turberr.New(turberr.Precondition, "--interp-data: unknown profile %q (want wsp, sig, or spec)", tok)
		}
	}
	return out, nil
}

func writeCSV(path string, data *mat.Dense, pts []grid.Point, dt float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"t"}
	for _, p := range pts {
		header = append(header, fmt.Sprintf("k%d_y%g_z%g", p.K, p.Y, p.Z))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	nt, nCols := data.Dims()
	row := make([]string, nCols+1)
	for t := 0; t < nt; t++ {
		row[0] = strconv.FormatFloat(float64(t)*dt, 'g', -1, 64)
		for c := 0; c < nCols; c++ {
			row[c+1] = strconv.FormatFloat(data.At(t, c), 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
