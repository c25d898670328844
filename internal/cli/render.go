package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/commitcanvas/pkg/graph"
	"github.com/matzehuels/commitcanvas/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	ref      string // starting ref when rendering a repository
	output   string // output file path
	format   string // output format: dot, svg, png
	detailed bool   // include scores and subjects in node labels
	noCache  bool   // skip the artifact cache
	workers  int    // linking worker pool size
}

// renderCommand creates the render command. The input is either a graph
// JSON file produced by load, or a repository directory.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [input]",
		Short: "Render a commit graph to DOT, SVG, or PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "."
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRender(cmd, input, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ref, "ref", "r", "", "start from this ref (default HEAD)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default derived from input)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "svg", "output format: svg (default), dot, png")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include scores and subjects in node labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "skip the artifact cache")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "linking worker count (default 4)")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()

	runner, err := c.newRunner(cmd, opts.noCache)
	if err != nil {
		return err
	}

	repo := repoNameFromDir(input)
	popts := pipeline.Options{
		Repo:     repo,
		Ref:      opts.ref,
		Format:   pipeline.Format(opts.format),
		Detailed: opts.detailed,
		Workers:  opts.workers,
		Logger:   c.Logger,
	}

	sp := newSpinner(ctx, "Rendering commit graph")
	sp.Start()

	var res *pipeline.Result
	if isGraphFile(input) {
		var g graph.Graph
		data, err := os.ReadFile(input)
		if err == nil {
			g, err = graph.UnmarshalGraph(data)
		}
		if err != nil {
			sp.StopWithError("Load failed")
			return err
		}
		popts.Repo = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		res, err = runner.Render(ctx, g, popts)
		if err != nil {
			sp.StopWithError("Render failed")
			return err
		}
	} else {
		in, cleanup, err := openLogStream(cmd, input, opts.ref)
		if err != nil {
			sp.Stop()
			return err
		}
		res, err = runner.Run(ctx, in, popts)
		if cleanupErr := cleanup(); err == nil {
			err = cleanupErr
		}
		if err != nil {
			sp.StopWithError("Render failed")
			return err
		}
	}
	sp.Stop()

	output := opts.output
	if output == "" {
		output = popts.Repo + "." + string(popts.Format)
	}
	if err := os.WriteFile(output, res.Artifact, 0644); err != nil {
		return err
	}

	printSuccess("Rendered %s in %s", output, res.Stats.Duration.Round(time.Millisecond))
	printStats(res.Stats.Commits, res.Stats.Edges, res.Cache.ArtifactHit)
	printDetail("%d rows, %d lanes", res.Stats.Rows, res.Stats.Lanes)
	return nil
}

// isGraphFile reports whether input looks like a saved graph JSON file.
func isGraphFile(input string) bool {
	if filepath.Ext(input) != ".json" {
		return false
	}
	info, err := os.Stat(input)
	return err == nil && !info.IsDir()
}
