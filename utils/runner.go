package utils

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command and returns its standard output.
// Directory-service helpers like ypcat sit behind this interface so they
// can be replaced in tests.
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) (string, error)
}

// ShellRunner implements Runner using os/exec. Stderr is only used to
// enrich the returned error.
type ShellRunner struct{}

func (r *ShellRunner) Run(ctx context.Context, bin string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%s %s: %w: %s", bin, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
