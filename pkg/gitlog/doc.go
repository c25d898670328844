// Package gitlog reads a git commit log stream and builds the in-memory
// history graph.
//
// The reader consumes the machine format produced by
//
//	git log --all --pretty=format:'%H%x1f%P%x1f%aN%x1f%aE%x1f%at%x1f%s%x1f%D'
//
// one record per line, newest commits first. Fields are separated by the
// unit separator byte, which cannot occur inside a subject or ref name. Records are decoded
// sequentially but linked into the graph by a pool of workers, so parent
// resolution and score propagation run concurrently the way the core graph
// is designed for.
//
// # Usage
//
//	loader := gitlog.NewLoader(gitlog.Options{Logger: logger})
//	hist, err := loader.Load(ctx, r)
//	if err != nil {
//	    return err
//	}
//	head := hist.Head() // checked-out commit, marked relative
//
// After loading, [History.Verify] checks the score-ordering and
// relative-closure invariants across every edge; a violation means the
// build is corrupt and is reported as a fatal internal error.
package gitlog
