package installer

import (
	"context"
	"strings"

	"install-tool/internal/logger"
)

// Planner produces an install order for a program.
type Planner interface {
	Plan(program string) ([]string, error)
}

// Installer plans and installs a program together with its dependencies.
type Installer struct {
	planner  Planner
	executor *Executor
}

// New returns an Installer that plans with p and installs with e.
func New(p Planner, e *Executor) *Installer {
	return &Installer{planner: p, executor: e}
}

// Install installs program and everything it depends on. The returned code
// is the process exit status to report.
//
// A program already on PATH is reported as installed before any property is
// resolved, so its dependencies are not looked at either.
func (i *Installer) Install(ctx context.Context, program string) (int, []Record, error) {
	if path, ok := i.executor.Present(program); ok {
		logger.Info("[INFO] Program %s already installed at %s. Exiting.\n", program, path)
		return 0, []Record{{Program: program, Skipped: true, Path: path}}, nil
	}

	// Resolve the full dependency closure before running anything
	order, err := i.planner.Plan(program)
	if err != nil {
		return 1, nil, err
	}
	logger.Info("[INFO] Install order for %s: %s\n", program, strings.Join(order, ", "))

	// Install in order; dependencies found on PATH are skipped by the executor
	return i.executor.Run(ctx, order)
}
