// Package preflight runs diagnostic checks and tallies their outcome.
package preflight

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single check when Check.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Check is one diagnostic.
type Check struct {
	Name     string
	Required bool   // false = warning only
	Hint     string // shown when the check fails
	Timeout  time.Duration

	// Run performs the check and returns a short detail for the report.
	Run func(ctx context.Context) (string, error)
}

// Status is the outcome of a check.
type Status int

const (
	Passed Status = iota
	Warned
	Failed
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Warned:
		return "warned"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of running one Check.
type Result struct {
	Check  Check
	Status Status
	Detail string
	Err    error
}

// Report collects the results of a run.
type Report struct {
	Results []Result
	Passed  int
	Warned  int
	Failed  int
}

// OK reports whether no required check failed.
func (r Report) OK() bool {
	return r.Failed == 0
}

// Run executes checks in order. A failing optional check is recorded as a
// warning; a failing required check as a failure. Every check runs even after
// a failure. onResult, if non-nil, is called as each check completes.
func Run(ctx context.Context, checks []Check, onResult func(Result)) Report {
	var report Report

	for _, c := range checks {
		res := runOne(ctx, c)
		switch res.Status {
		case Passed:
			report.Passed++
		case Warned:
			report.Warned++
		case Failed:
			report.Failed++
		}
		report.Results = append(report.Results, res)
		if onResult != nil {
			onResult(res)
		}
	}

	return report
}

func runOne(ctx context.Context, c Check) Result {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	detail, err := c.Run(ctx)
	res := Result{Check: c, Detail: detail, Err: err}
	switch {
	case err == nil:
		res.Status = Passed
	case c.Required:
		res.Status = Failed
	default:
		res.Status = Warned
	}
	return res
}
