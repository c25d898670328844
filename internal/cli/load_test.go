package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestOpenLogStreamStdin(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("record\n"))
	cmd.SetContext(t.Context())

	in, cleanup, err := openLogStream(cmd, "-", "")
	if err != nil {
		t.Fatalf("openLogStream: %v", err)
	}
	data, err := io.ReadAll(in)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "record\n" {
		t.Errorf("read %q", data)
	}
	if err := cleanup(); err != nil {
		t.Errorf("cleanup: %v", err)
	}
}

func TestOpenLogStreamFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.log")
	if err := os.WriteFile(path, []byte("a|b|c|d|1|e|f\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.SetContext(t.Context())

	in, cleanup, err := openLogStream(cmd, path, "")
	if err != nil {
		t.Fatalf("openLogStream: %v", err)
	}
	data, err := io.ReadAll(in)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "a|b|") {
		t.Errorf("read %q", data)
	}
	if err := cleanup(); err != nil {
		t.Errorf("cleanup: %v", err)
	}
}

func TestOpenLogStreamMissingPath(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(t.Context())

	if _, _, err := openLogStream(cmd, filepath.Join(t.TempDir(), "gone"), ""); err == nil {
		t.Fatal("openLogStream(missing) returned nil error")
	}
}

func TestIsGraphFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	if isGraphFile(path) {
		t.Error("missing file reported as graph file")
	}
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !isGraphFile(path) {
		t.Error("existing .json file not reported as graph file")
	}
	if isGraphFile(".") {
		t.Error("directory reported as graph file")
	}
}
