package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/commitcanvas/pkg/gitlog"
	"github.com/matzehuels/commitcanvas/pkg/graph"
)

// loadOpts holds the command-line flags for the load command.
type loadOpts struct {
	ref     string // starting ref (default HEAD)
	output  string // output file path
	workers int    // linking worker pool size
}

// loadCommand creates the load command. It walks a repository's history and
// writes the resulting graph as JSON.
//
// The argument is a repository directory, or "-" to read a pre-generated
// git log stream from stdin.
func (c *CLI) loadCommand() *cobra.Command {
	var opts loadOpts

	cmd := &cobra.Command{
		Use:   "load [repo]",
		Short: "Load a repository's commit graph and write it as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runLoad(cmd, dir, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ref, "ref", "r", "", "start from this ref (default HEAD)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <repo>.json)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "linking worker count (default 4)")

	return cmd
}

func (c *CLI) runLoad(cmd *cobra.Command, dir string, opts *loadOpts) error {
	ctx := cmd.Context()
	prog := newProgress(c.Logger)

	in, cleanup, err := openLogStream(cmd, dir, opts.ref)
	if err != nil {
		return err
	}

	sp := newSpinner(ctx, "Loading commit graph")
	sp.Start()

	loader := gitlog.NewLoader(gitlog.Options{Workers: opts.workers, Logger: c.Logger})
	hist, err := loader.Load(ctx, in)
	cleanupErr := cleanup()
	if err != nil {
		sp.StopWithError("Load failed")
		return err
	}
	if cleanupErr != nil {
		sp.StopWithError("git log failed")
		return cleanupErr
	}
	sp.Stop()

	output := opts.output
	if output == "" {
		output = repoNameFromDir(dir) + ".json"
	}
	if err := graph.WriteGraphFile(hist, output); err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Loaded %d commits", hist.Len()))
	printFile(output)
	return nil
}

// openLogStream returns a git log record stream for dir. The cleanup
// function must be called after the stream has been drained; for process
// streams it reaps git and surfaces its exit error.
func openLogStream(cmd *cobra.Command, dir, ref string) (io.Reader, func() error, error) {
	if dir == "-" {
		return cmd.InOrStdin(), func() error { return nil }, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		// A saved log stream file.
		f, err := os.Open(dir)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}

	out, wait, err := gitlog.Stream(cmd.Context(), dir, ref)
	if err != nil {
		return nil, nil, err
	}
	// wait reaps git and closes the pipe.
	return out, wait, nil
}
