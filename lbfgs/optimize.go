// Copyright ©2025 the Shark authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lbfgs implements the limited-memory BFGS search-direction core for
// smooth minimization. It maintains a bounded history of (step, gradient
// difference) pairs, applies the implicit inverse or forward Hessian
// approximation without ever materializing a matrix, and produces feasible
// descent directions for box-constrained problems via an active-set dogleg
// step. Line search, convergence testing and the outer iteration loop belong
// to the surrounding optimizer.
package lbfgs

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// LogLevel controls the frequency and type of logger output.
type LogLevel int

const (
	// LogNoop no output is generated (level < 0)
	LogNoop LogLevel = -1
	// LogLast print only model resets and restores
	LogLast LogLevel = 0
	// LogEval print also every history update and skip
	LogEval LogLevel = 1
	// LogTrace print details of the box-constrained fallbacks
	LogTrace LogLevel = 99
)

// Logger handles logging output for the direction computation.
// Note the writer must be thread-safe.
type Logger struct {
	Level LogLevel
	Msg   io.Writer // Writer to output log messages.
}

func (l *Logger) enable(level LogLevel) bool {
	return l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}

// Problem specifies the target for the L-BFGS direction core.
type Problem struct {
	N       int               // The problem dimension
	M       int               // The number of correction pairs to retain
	Handler ConstraintHandler // Optional, nil for unconstrained problems
}

// New creates a new direction computer for the given problem.
func (p *Problem) New(logger *Logger) (optimizer *Optimizer, err error) {

	if logger == nil {
		logger = new(Logger)
		logger.Level = LogNoop
	}
	if logger.Msg == nil {
		logger.Msg = os.Stdout
	}

	n, m := p.N, p.M

	switch {
	case n <= 0:
		err = errors.New("problem dimension must greater than 0")
	case m <= 0:
		err = errors.New("correction number must greater than 0")
	}
	if err != nil {
		return
	}

	if box, ok := p.Handler.(*BoxConstraintHandler); ok {
		if len(box.Lower) != n || len(box.Upper) != n {
			err = errors.New("bounds size must equal to n")
			return
		}
		for k := range box.Lower {
			if box.Lower[k] > box.Upper[k] {
				err = fmt.Errorf("bound range at %d has no feasible solution", k)
				return
			}
		}
	}

	optimizer = &Optimizer{
		n:       n,
		logger:  *logger,
		handler: p.Handler,
		hist: history{
			m:     m,
			pairs: make([]correction, 0, m),
		},
		lastPoint: make([]float64, n),
		lastGrad:  make([]float64, n),
	}
	optimizer.ctx.init(n, m)
	optimizer.InitModel()
	return
}

// Optimizer owns the persistent quasi-Newton state of one optimization run:
// the correction history, the diagonal scale and the previous point and
// gradient. It is not safe for concurrent use.
type Optimizer struct {
	n       int
	logger  Logger
	handler ConstraintHandler

	hist history
	ctx  dirCtx

	havePrev  bool
	lastPoint []float64
	lastGrad  []float64
}

// InitModel resets the quasi-Newton model to the identity: the correction
// history is cleared, bdiag returns to 1 and the next Direction call starts
// a fresh run. Called once before optimization begins.
func (o *Optimizer) InitModel() {
	o.hist.reset()
	o.havePrev = false
	if log := &o.logger; log.enable(LogLast) {
		log.log("L-BFGS model reset to identity\n")
	}
}

// NumCorrections reports the number of correction pairs currently stored.
func (o *Optimizer) NumCorrections() int {
	return len(o.hist.pairs)
}
