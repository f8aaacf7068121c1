// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/ebranlard/iea29-turb/coherence"
	"github.com/ebranlard/iea29-turb/turberr"
)

func Test_config01(tst *testing.T) {

	chk.PrintTitle("config01. Default is valid")

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		tst.Errorf("Default() should validate, got %v", err)
	}
	chk.IntAssert(int(cfg.CohModel), int(coherence.IEC))
	chk.IntAssert(cfg.Edition, 3)
	chk.IntAssert(cfg.NFChunk, 1)
}

func Test_config02(tst *testing.T) {

	chk.PrintTitle("config02. Validate rejects bad option combinations")

	bad := []RunConfig{
		{CohModel: coherence.IEC, Edition: 2, NFChunk: 1},
		{CohModel: coherence.IEC, Edition: 3, NFChunk: 0},
		{CohModel: coherence.IEC, Edition: 3, NFChunk: 1, CombineFreqData: true, WriteFreqData: false},
	}
	for i, cfg := range bad {
		err := cfg.Validate()
		if err == nil {
			tst.Errorf("case %d: expected a validation error", i)
			continue
		}
		if !turberr.Is(err, turberr.Precondition) {
			tst.Errorf("case %d: expected a Precondition error, got %v", i, err)
		}
	}
}

func Test_config03(tst *testing.T) {

	chk.PrintTitle("config03. InterpSet.Requested reflects the selected profiles")

	if None.Requested() {
		tst.Errorf("None should not be requested")
	}
	if !All.Requested() {
		tst.Errorf("All should be requested")
	}
	if !(InterpSet{Spec: true}).Requested() {
		tst.Errorf("a single selected profile should be requested")
	}
}
