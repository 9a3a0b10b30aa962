package taskkit

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandJob returns a Job that runs a shell command with a timeout. The
// run's result is the command's trimmed combined output.
//
// A zero timeout means no limit; a hung command then occupies its worker
// until it exits, exactly like any other hung task.
func CommandJob(name string, args []string, timeout time.Duration) Job {
	return func(time.Time) (any, error) {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
		text := strings.TrimSpace(string(out))
		if err != nil {
			if text != "" {
				return nil, fmt.Errorf("%s: %w: %s", name, err, text)
			}
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return text, nil
	}
}
