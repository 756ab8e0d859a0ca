// Copyright ©2025 the Shark authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lbfgs

import (
	"encoding/binary"
	"fmt"
	"io"
)

// The optimizer state is persisted as an ordered little-endian record:
//
//	n, havePrev, lastPoint, lastGrad, m, bdiag, k, steps, gradient differences
//
// Every float64 is written as its IEEE-754 bits, so a round trip restores
// the model exactly and subsequent direction computations are bit-identical
// given identical future inputs.

// WriteState serializes the persistent optimizer state.
func (o *Optimizer) WriteState(w io.Writer) error {

	havePrev := uint8(0)
	if o.havePrev {
		havePrev = 1
	}

	record := []any{
		int64(o.n),
		havePrev,
		o.lastPoint,
		o.lastGrad,
		int64(o.hist.m),
		o.hist.bdiag,
		int64(len(o.hist.pairs)),
	}
	for _, c := range o.hist.pairs {
		record = append(record, c.s)
	}
	for _, c := range o.hist.pairs {
		record = append(record, c.y)
	}

	for _, v := range record {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("lbfgs: write state: %w", err)
		}
	}
	return nil
}

// ReadState restores the persistent optimizer state from a record produced
// by WriteState. The recorded dimension must match the problem dimension;
// the correction limit is adopted from the record.
func (o *Optimizer) ReadState(r io.Reader) error {

	var n, m, k int64
	var havePrev uint8
	var bdiag float64

	if err := readRecord(r, &n); err != nil {
		return err
	}
	if int(n) != o.n {
		return fmt.Errorf("lbfgs: read state: dimension %d not match spec %d", n, o.n)
	}

	lastPoint := make([]float64, n)
	lastGrad := make([]float64, n)
	if err := readRecord(r, &havePrev, lastPoint, lastGrad, &m, &bdiag, &k); err != nil {
		return err
	}

	switch {
	case m <= 0:
		return fmt.Errorf("lbfgs: read state: correction number %d must greater than 0", m)
	case k < 0 || k > m:
		return fmt.Errorf("lbfgs: read state: %d stored pairs exceed limit %d", k, m)
	case bdiag <= 0:
		return fmt.Errorf("lbfgs: read state: diagonal scale %g must greater than 0", bdiag)
	}

	pairs := make([]correction, k, m)
	for i := range pairs {
		pairs[i].s = make([]float64, n)
		if err := readRecord(r, pairs[i].s); err != nil {
			return err
		}
	}
	for i := range pairs {
		pairs[i].y = make([]float64, n)
		if err := readRecord(r, pairs[i].y); err != nil {
			return err
		}
	}

	if int(m) != o.hist.m {
		o.ctx.init(o.n, int(m))
	}
	o.hist = history{m: int(m), bdiag: bdiag, pairs: pairs}
	o.havePrev = havePrev != 0
	o.lastPoint = lastPoint
	o.lastGrad = lastGrad
	return nil
}

func readRecord(r io.Reader, fields ...any) error {
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("lbfgs: read state: %w", err)
		}
	}
	return nil
}
