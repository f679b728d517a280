package chain

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// DefaultRunner executes subprocesses directly via os/exec, optionally
// through a configured shell (mirrors internal/session/runner.go's use of
// os/exec.Command for subprocess execution, generalized from a fixed
// `claude` binary to an arbitrary argv).
type DefaultRunner struct {
	// Shell, when non-empty, is invoked as `Shell -c "<argv joined>"`
	// instead of exec'ing argv[0] directly (spec.md §4.5).
	Shell string
}

// Run executes argv (or a shell invocation of it), feeding stdin if
// provided, and returns captured stdout. A nonzero exit is reported as a
// ChainSourceError.
func (r *DefaultRunner) Run(ctx context.Context, argv []string, stdin *string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, &ChainSourceError{Kind: SourceErrorCommandFailed, Detail: "empty argv"}
	}

	var cmd *exec.Cmd
	if r.Shell != "" {
		cmd = exec.CommandContext(ctx, r.Shell, "-c", joinShellArgs(argv))
	} else {
		cmd = exec.CommandContext(ctx, argv[0], argv[1:]...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader([]byte(*stdin))
	}

	if err := cmd.Run(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, &ChainSourceError{Kind: SourceErrorCommandFailed, Detail: err.Error(), Cause: err}
		}
		return nil, &ChainSourceError{
			Kind:   SourceErrorCommandFailed,
			Detail: fmt.Sprintf("exit %d: %s", exitErr.ExitCode(), stderr.String()),
			Cause:  err,
		}
	}
	return stdout.Bytes(), nil
}

func joinShellArgs(argv []string) string {
	var buf bytes.Buffer
	for i, a := range argv {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(a)
	}
	return buf.String()
}
