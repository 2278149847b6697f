package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/areaoforigin/narrator/internal/observability"
	"github.com/areaoforigin/narrator/internal/output"
)

const (
	checkOK   = "ok"
	checkWarn = "warn"
	checkFail = "FAIL"
	checkSkip = "skip"
)

var errSkipped = errors.New("skipped")

// skipped marks a check that could not run because an earlier one failed.
func skipped(reason string) error {
	return fmt.Errorf("%w: %s", errSkipped, reason)
}

// check is one row of health or doctor output. run returns the detail shown
// when it passes.
type check struct {
	name     string
	run      func(ctx context.Context) (string, error)
	advisory bool // failure is reported as a warning
}

type checkResult struct {
	name   string
	status string
	detail string
}

// runChecks runs every check in order and reports whether none failed.
func runChecks(ctx context.Context, checks []check) ([]checkResult, bool) {
	results := make([]checkResult, 0, len(checks))
	passed := true
	for _, c := range checks {
		detail, err := c.run(ctx)
		res := checkResult{name: c.name, status: checkOK, detail: detail}
		switch {
		case err == nil:
		case errors.Is(err, errSkipped):
			res.status, res.detail = checkSkip, err.Error()
		case c.advisory:
			res.status, res.detail = checkWarn, err.Error()
		default:
			res.status, res.detail = checkFail, err.Error()
			passed = false
		}
		if observability.CLILogger != nil {
			observability.CLILogger.Debug("Check finished",
				zap.String("check", c.name),
				zap.String("status", res.status),
				zap.Error(err))
		}
		results = append(results, res)
	}
	return results, passed
}

func checksTable(title string, results []checkResult) *output.Table {
	t := &output.Table{Title: title, Header: []string{"Check", "Status", "Detail"}}
	ok := 0
	for _, r := range results {
		if r.status == checkOK {
			ok++
		}
		t.Rows = append(t.Rows, []string{r.name, r.status, valueOrDash(r.detail)})
	}
	t.Footer = fmt.Sprintf("%d of %d passed", ok, len(results))
	return t
}
