package dbunified

// Pipelines run several statements on one session:
//
//	results, err := h.Pipeline().
//		Add("INSERT INTO users (name) VALUES (%s)", []any{"Ann"}).
//		Add("SELECT count(*) FROM users", nil, Fetch(QuantitySingle)).
//		Execute(ctx)
//
// Statements share one connection and one transaction, committed once after
// the last statement succeeds. If any statement fails the connection is
// closed and the transaction rolled back. SurrealDB commits each statement
// on its own, so a failed pipeline there keeps the earlier writes.

import (
	"context"
	"fmt"
	"log/slog"
)

// Pipeline accumulates statements to run together.
type Pipeline struct {
	h     *Handle
	steps []pipelineStep
}

type pipelineStep struct {
	statement string
	params    any
	opts      []RunOption
}

// Pipeline starts an empty pipeline on h.
func (h *Handle) Pipeline() *Pipeline {
	return &Pipeline{h: h, steps: make([]pipelineStep, 0)}
}

// Add appends a statement. AutoConnect options are ignored.
func (p *Pipeline) Add(statement string, params any, opts ...RunOption) *Pipeline {
	p.steps = append(p.steps, pipelineStep{statement: statement, params: params, opts: opts})
	return p
}

// Len returns the number of statements in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Execute connects, runs every statement in order, commits and disconnects.
// It returns one result per statement, nil for mutating ones.
func (p *Pipeline) Execute(ctx context.Context) (results []any, err error) {
	if len(p.steps) == 0 {
		return nil, nil
	}

	h := p.h
	if err := h.Connect(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if derr := h.Disconnect(); derr != nil && err == nil {
			err = derr
		}
	}()

	results = make([]any, 0, len(p.steps))
	for i, step := range p.steps {
		opts := append(append([]RunOption{}, step.opts...), AutoConnect(false), deferCommit())
		result, err := h.Run(ctx, step.statement, step.params, opts...)
		if err != nil {
			h.logger.Debug("pipeline aborted", slog.Int("step", i), slog.String("error", err.Error()))
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, result)
	}

	if err := h.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

// deferCommit leaves the transaction open after a mutating statement.
func deferCommit() RunOption {
	return func(o *runOptions) { o.deferCommit = true }
}
