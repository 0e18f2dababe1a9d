package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

const maxOutputTail = 512

// Runner запускает внешний процесс; в тестах подменяется фейком.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner запускает процесс через os/exec и прикладывает к ошибке хвост вывода.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(out))
	}
	return nil
}

func tail(out []byte) string {
	out = bytes.TrimSpace(out)
	if len(out) > maxOutputTail {
		out = out[len(out)-maxOutputTail:]
	}
	return string(out)
}
