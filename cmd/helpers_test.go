package cmd

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"clipkeeper/pkg/clipboard"
	"clipkeeper/pkg/clipboard/clipboardtest"
	"clipkeeper/pkg/config"
	"clipkeeper/pkg/logger"
)

// testEnv points configuration, history and snapshot paths into a temp dir
// and installs a fake clipboard.
type testEnv struct {
	dir          string
	snapshotPath string
	clip         *clipboardtest.Fake
}

func setupCLI(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:          dir,
		snapshotPath: filepath.Join(dir, "snapshot.json"),
		clip:         clipboardtest.New(clipboard.CustomFormatThreshold),
	}

	t.Setenv("CLIPKEEPER_CONFIG", filepath.Join(dir, "config.yaml"))
	t.Setenv("CLIPKEEPER_HISTORY_DB", filepath.Join(dir, "history.db"))
	t.Setenv("CLIPKEEPER_SNAPSHOT_PATH", env.snapshotPath)
	for _, key := range []string{
		"CLIPKEEPER_HISTORY_MAX_ENTRIES",
		"CLIPKEEPER_HISTORY_MAX_AGE",
		"CLIPKEEPER_OPEN_RETRIES",
		"CLIPKEEPER_RETRY_INTERVAL",
		"CLIPKEEPER_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	origSystem := newClipboardSystem
	newClipboardSystem = func() (clipboard.System, error) {
		return env.clip, nil
	}
	origRead := readClipboardText
	logger.SetOutput(io.Discard)

	t.Cleanup(func() {
		newClipboardSystem = origSystem
		readClipboardText = origRead
		appConfig = config.Default()
	})

	return env
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the command tree with args, feeding stdin to prompts.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))

	err := root.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func utf16z(s string) []byte {
	out := make([]byte, 0, 2*len(s)+2)
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return append(out, 0, 0)
}
