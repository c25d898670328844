package gitlog

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	apperrors "github.com/matzehuels/commitcanvas/pkg/errors"
)

// Stream runs git log in dir and returns the record stream. The caller must
// drain the reader and then call wait, which reaps the process and surfaces
// its exit error.
//
// ref selects the starting point; empty means HEAD. Decorations are included
// so the checked-out commit can be identified.
func Stream(ctx context.Context, dir, ref string) (io.ReadCloser, func() error, error) {
	if ref != "" {
		if err := apperrors.ValidateRef(ref); err != nil {
			return nil, nil, err
		}
	}

	args := []string{"log", "--pretty=format:" + PrettyFormat, "--decorate=short"}
	if ref != "" {
		args = append(args, ref)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("git log stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrCodeInvalidRepo, err, "start git log in %s", dir)
	}

	wait := func() error {
		if err := cmd.Wait(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			return apperrors.Wrap(apperrors.ErrCodeInvalidLog, err, "git log: %s", msg)
		}
		return nil
	}
	return out, wait, nil
}
