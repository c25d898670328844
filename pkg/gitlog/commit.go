package gitlog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/commitcanvas/pkg/core/commitgraph"
)

// PrettyFormat is the git --pretty format the parser understands. Fields are
// separated by the unit separator byte (%x1f): subjects routinely contain
// pipes and commas, but git forbids control characters in ref names and %s
// strips them from subjects, so 0x1f cannot appear inside a field.
const PrettyFormat = "%H%x1f%P%x1f%aN%x1f%aE%x1f%at%x1f%s%x1f%D"

// FieldSep is the record field separator emitted by [PrettyFormat].
const FieldSep = "\x1f"

// recordFields is the number of separated fields in a log record.
const recordFields = 7

// ErrMalformedRecord is returned when a log line does not match
// [PrettyFormat].
var ErrMalformedRecord = errors.New("malformed log record")

// Commit is one decoded log record. It is attached to the graph node as its
// payload; the graph itself never reads it.
type Commit struct {
	Hash    commitgraph.Hash   `json:"hash"`
	Parents []commitgraph.Hash `json:"parents,omitempty"`
	Author  string             `json:"author"`
	Email   string             `json:"email,omitempty"`
	When    time.Time          `json:"when"`
	Subject string             `json:"subject"`
	Refs    []string           `json:"refs,omitempty"`
}

// IsHead reports whether the record carries the HEAD decoration, i.e. it is
// the currently checked-out commit.
func (c *Commit) IsHead() bool {
	for _, ref := range c.Refs {
		if ref == "HEAD" || strings.HasPrefix(ref, "HEAD ->") {
			return true
		}
	}
	return false
}

// ParseRecord decodes a single log line in [PrettyFormat].
// Returns ErrMalformedRecord (wrapped with the offending line) when the
// field count or timestamp is off.
func ParseRecord(line string) (Commit, error) {
	parts := strings.SplitN(line, FieldSep, recordFields)
	if len(parts) != recordFields {
		return Commit{}, fmt.Errorf("%w: %q has %d fields, want %d", ErrMalformedRecord, line, len(parts), recordFields)
	}
	if parts[0] == "" {
		return Commit{}, fmt.Errorf("%w: empty hash in %q", ErrMalformedRecord, line)
	}

	unix, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return Commit{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedRecord, parts[4])
	}

	c := Commit{
		Hash:    commitgraph.Hash(parts[0]),
		Author:  parts[2],
		Email:   parts[3],
		When:    time.Unix(unix, 0).UTC(),
		Subject: parts[5],
	}

	for _, p := range strings.Fields(parts[1]) {
		c.Parents = append(c.Parents, commitgraph.Hash(p))
	}

	if decorations := strings.TrimSpace(parts[6]); decorations != "" {
		for _, ref := range strings.Split(decorations, ",") {
			if ref = strings.TrimSpace(ref); ref != "" {
				c.Refs = append(c.Refs, ref)
			}
		}
	}

	return c, nil
}
