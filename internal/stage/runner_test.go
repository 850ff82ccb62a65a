package stage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeTool = `#!/bin/sh
printf '%s\n' "$@" > "$FAKE_ARGS_FILE"
echo "generating project"
echo "asset warning" >&2
if [ -n "$FAKE_SLEEP" ]; then exec sleep "$FAKE_SLEEP"; fi
exit ${FAKE_EXIT:-0}
`

type fakeEnv struct {
	tool     string
	argsFile string
	project  string
}

func newFakeTool(t *testing.T) fakeEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool is a shell script")
	}
	dir := t.TempDir()
	tool := filepath.Join(dir, "tool.sh")
	require.NoError(t, os.WriteFile(tool, []byte(fakeTool), 0o755))
	project := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(project, 0o755))
	return fakeEnv{tool: tool, argsFile: filepath.Join(dir, "args.txt"), project: project}
}

func (f fakeEnv) runner(stdout, stderr *bytes.Buffer, env ...string) *Runner {
	env = append(env, "FAKE_ARGS_FILE="+f.argsFile)
	return NewRunner(DefaultExitPolicy(), WithOutput(stdout, stderr), WithEnv(env...))
}

func (f fakeEnv) invocation(stage Name) Invocation {
	return Invocation{
		ToolPath:    f.tool,
		ProjectPath: f.project,
		Stage:       stage,
		ConfigPath:  "/cfg/windows-release.json",
		Platform:    "windows",
		Extra:       Params{{Key: "name", Value: "Reel Game"}},
	}
}

func TestRunner_SuccessStreamsOutputAndPassesArgv(t *testing.T) {
	f := newFakeTool(t)
	var stdout, stderr bytes.Buffer

	res, err := f.runner(&stdout, &stderr).Run(t.Context(), f.invocation(Build))
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, stdout.String(), "generating project")
	assert.Contains(t, stderr.String(), "asset warning")

	raw, err := os.ReadFile(f.argsFile)
	require.NoError(t, err)
	args := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, args, 4, "parameter string must arrive as a single argument")
	assert.Equal(t, "--project", args[0])
	assert.Equal(t, f.project, args[1])
	assert.Equal(t, "--build", args[2])
	assert.Equal(t, "platform=windows;configPath=/cfg/windows-release.json;stage=build;force=true;name=Reel Game", args[3])
}

func TestRunner_WarningExitCodeIsSuccess(t *testing.T) {
	f := newFakeTool(t)
	var stdout, stderr bytes.Buffer

	res, err := f.runner(&stdout, &stderr, "FAKE_EXIT=36").Run(t.Context(), f.invocation(Make))
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, 36, res.ExitCode)
}

func TestRunner_FailureCarriesExitCode(t *testing.T) {
	f := newFakeTool(t)
	var stdout, stderr bytes.Buffer

	res, err := f.runner(&stdout, &stderr, "FAKE_EXIT=2").Run(t.Context(), f.invocation(Build))
	require.Error(t, err)
	assert.False(t, res.Succeeded)
	assert.Equal(t, 2, res.ExitCode)

	var failed *FailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, 2, failed.ExitCode)
	assert.Equal(t, Build, failed.Stage)
	assert.Contains(t, failed.Output, "asset warning")
	assert.ErrorIs(t, err, ErrStageFailed)
}

func TestRunner_CustomPolicy(t *testing.T) {
	f := newFakeTool(t)
	var stdout, stderr bytes.Buffer
	r := NewRunner(NewExitPolicy(0), WithOutput(&stdout, &stderr), WithEnv("FAKE_ARGS_FILE="+f.argsFile, "FAKE_EXIT=36"))

	_, err := r.Run(t.Context(), f.invocation(Build))
	assert.ErrorIs(t, err, ErrStageFailed)
}

func TestRunner_Timeout(t *testing.T) {
	f := newFakeTool(t)
	var stdout, stderr bytes.Buffer
	inv := f.invocation(Make)
	inv.Timeout = 200 * time.Millisecond

	start := time.Now()
	_, err := f.runner(&stdout, &stderr, "FAKE_SLEEP=10").Run(t.Context(), inv)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStageTimeout)
	assert.NotErrorIs(t, err, ErrStageFailed)
	assert.Less(t, time.Since(start), 8*time.Second)
}

func TestRunner_ParentCancellation(t *testing.T) {
	f := newFakeTool(t)
	var stdout, stderr bytes.Buffer
	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := f.runner(&stdout, &stderr, "FAKE_SLEEP=10").Run(ctx, f.invocation(Build))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrStageTimeout)
}

func TestRunner_MissingTool(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := NewRunner(DefaultExitPolicy(), WithOutput(&stdout, &stderr))
	res, err := r.Run(t.Context(), Invocation{ToolPath: filepath.Join(t.TempDir(), "missing"), ProjectPath: t.TempDir(), Stage: Build})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolStart)
	assert.False(t, res.Succeeded)
}

func TestRunner_RejectsBadExtraParams(t *testing.T) {
	r := NewRunner(ExitPolicy{})
	_, err := r.Run(t.Context(), Invocation{ToolPath: "unused", Stage: Build, Extra: Params{{Key: "a", Value: "1;2"}}})
	require.Error(t, err)
	assert.Equal(t, []int{0, 36}, r.Policy().Codes(), "empty policy falls back to default")
}

func TestRunner_RejectsReservedExtraParams(t *testing.T) {
	r := NewRunner(ExitPolicy{})
	extra := Params{{Key: "stage", Value: "make"}, {Key: "configPath", Value: "/other.json"}, {Key: "force", Value: "false"}}
	res, err := r.Run(t.Context(), Invocation{ToolPath: "unused", Stage: Build, ConfigPath: "/c.json", Extra: extra})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved")
	assert.False(t, res.Succeeded)
}
