package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls []Command
	code  int
	err   error
}

func (f *fakeRunner) Run(_ context.Context, cmd Command) (int, error) {
	f.calls = append(f.calls, cmd)
	return f.code, f.err
}

type fixture struct {
	dir    string
	runner *fakeRunner
	chdirs []string
}

func newFixture(t *testing.T, manifest string) *fixture {
	t.Helper()

	f := &fixture{dir: t.TempDir(), runner: &fakeRunner{}}

	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "eda-service"), []byte("#!/bin/sh\n"), 0o755))

	if manifest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(f.dir, "edapanel.manifest"), []byte(manifest), 0o644))
	}

	return f
}

func (f *fixture) launcher() *Launcher {
	return New(
		Config{Root: ".edapanel", Manifest: "edapanel.manifest", Entry: "eda-service"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithRunner(f.runner),
		WithExecutable(func() (string, error) { return filepath.Join(f.dir, "launcher"), nil }),
		WithChdir(func(dir string) error {
			f.chdirs = append(f.chdirs, dir)
			return nil
		}),
		WithEnviron(func() []string { return []string{"PATH=/usr/bin"} }),
	)
}

func TestParseManifest(t *testing.T) {
	in := "# comment\n\ndir inbox\ntemplate configs/base.yaml\nsample inbox/s.csv 20\nsample other.csv\n"

	entries, err := ParseManifest(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, Entry{Kind: EntryDir, Path: "inbox", Line: 3}, entries[0])
	assert.Equal(t, EntryTemplate, entries[1].Kind)
	assert.Equal(t, 20, entries[2].Rows)
	assert.Equal(t, defaultSampleRows, entries[3].Rows)
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"missing path", "dir\n", "want"},
		{"unknown kind", "link a b\n", "unknown entry kind"},
		{"absolute path", "dir /etc\n", "leaves the workspace"},
		{"parent path", "dir ../up\n", "leaves the workspace"},
		{"bad rows", "sample s.csv many\n", "invalid row count"},
		{"zero rows", "sample s.csv 0\n", "invalid row count"},
		{"extra argument", "dir a b\n", "takes no argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest(strings.NewReader(tt.in))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestRun_FirstRunProvisions(t *testing.T) {
	f := newFixture(t, "dir inbox\ndir logs\ntemplate configs/base.yaml\nsample inbox/sample_data.csv 10\n")

	res, err := f.launcher().Run(context.Background(), "--flag")
	require.NoError(t, err)

	root := filepath.Join(f.dir, ".edapanel")
	assert.True(t, res.Provisioned)
	assert.Equal(t, root, res.Root)
	assert.Equal(t, []string{f.dir}, f.chdirs)

	assert.DirExists(t, filepath.Join(root, "logs"))
	assert.FileExists(t, filepath.Join(root, MarkerFile))

	cfg, err := os.ReadFile(filepath.Join(root, "configs", "base.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "watch:")

	data, err := os.ReadFile(filepath.Join(root, "inbox", "sample_data.csv"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 11)

	require.Len(t, f.runner.calls, 1)
	cmd := f.runner.calls[0]
	assert.Equal(t, filepath.Join(f.dir, "eda-service"), cmd.Path)
	assert.Equal(t, []string{"--flag"}, cmd.Args)
	assert.Equal(t, root, cmd.Dir)
	assert.Contains(t, cmd.Env, EnvWorkspaceRoot+"="+root)
	assert.Contains(t, cmd.Env, "PATH=/usr/bin")
}

func TestRun_ExistingWorkspaceSkipsProvisioning(t *testing.T) {
	f := newFixture(t, "dir inbox\n")

	root := filepath.Join(f.dir, ".edapanel")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, MarkerFile), []byte("x"), 0o644))

	res, err := f.launcher().Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Provisioned)
	assert.NoDirExists(t, filepath.Join(root, "inbox"))
	assert.Len(t, f.runner.calls, 1)
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	f := newFixture(t, "dir inbox\nsample inbox/s.csv 5\n")
	l := f.launcher()

	first, err := l.Run(context.Background())
	require.NoError(t, err)
	second, err := l.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, first.Provisioned)
	assert.False(t, second.Provisioned)
	assert.Len(t, f.runner.calls, 2)
}

func TestRun_WritesDefaultManifest(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.launcher().Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.dir, "edapanel.manifest"))
	require.NoError(t, err)
	assert.Equal(t, DefaultManifest, string(data))
	assert.FileExists(t, filepath.Join(f.dir, ".edapanel", "inbox", "sample_data.csv"))
}

func TestRun_ExitCodePropagates(t *testing.T) {
	f := newFixture(t, "dir inbox\n")
	f.runner.code = 3

	res, err := f.launcher().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRun_Errors(t *testing.T) {
	t.Run("bad manifest", func(t *testing.T) {
		f := newFixture(t, "mount x\n")

		_, err := f.launcher().Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown entry kind")
		assert.NoFileExists(t, filepath.Join(f.dir, ".edapanel", MarkerFile))
		assert.Empty(t, f.runner.calls)
	})

	t.Run("missing template", func(t *testing.T) {
		f := newFixture(t, "template configs/none.yaml\n")

		_, err := f.launcher().Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no embedded template")
	})

	t.Run("missing main program", func(t *testing.T) {
		f := newFixture(t, "dir inbox\n")
		require.NoError(t, os.Remove(filepath.Join(f.dir, "eda-service")))

		_, err := f.launcher().Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "main program")
		assert.Empty(t, f.runner.calls)
	})

	t.Run("runner failure", func(t *testing.T) {
		f := newFixture(t, "dir inbox\n")
		f.runner.err = errors.New("exec format error")
		f.runner.code = -1

		res, err := f.launcher().Run(context.Background())
		require.Error(t, err)
		assert.Equal(t, -1, res.ExitCode)
	})

	t.Run("executable lookup", func(t *testing.T) {
		l := New(Config{}, nil, WithExecutable(func() (string, error) { return "", errors.New("no proc") }))

		_, err := l.Run(context.Background())
		assert.ErrorContains(t, err, "locating launcher")
	})
}

func TestResolveExecutable(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "bin", "launcher")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("#!/bin/sh\n"), 0o755))

	link := filepath.Join(dir, "launcher")
	require.NoError(t, os.Symlink(target, link))

	want, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)

	got, err := ResolveExecutable(func() (string, error) { return link, nil })
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ResolveExecutable(func() (string, error) { return "", errors.New("no proc") })
	assert.ErrorContains(t, err, "locating launcher")
}

func TestRun_ThroughSymlink(t *testing.T) {
	f := newFixture(t, "dir inbox\n")
	link := filepath.Join(t.TempDir(), "launcher")
	require.NoError(t, os.Symlink(filepath.Join(f.dir, "launcher"), link))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "launcher"), []byte("#!/bin/sh\n"), 0o755))

	want, err := filepath.EvalSymlinks(f.dir)
	require.NoError(t, err)

	l := New(
		Config{Root: ".edapanel", Manifest: "edapanel.manifest", Entry: "eda-service"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithRunner(f.runner),
		WithExecutable(func() (string, error) { return link, nil }),
		WithChdir(func(dir string) error {
			f.chdirs = append(f.chdirs, dir)
			return nil
		}),
	)

	res, err := l.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, want, res.Dir)
	require.NotEmpty(t, f.chdirs)
	assert.Equal(t, want, f.chdirs[0])
}

func TestProvision_KeepsExistingTemplate(t *testing.T) {
	f := newFixture(t, "template configs/base.yaml\n")
	root := filepath.Join(f.dir, ".edapanel")

	existing := filepath.Join(root, "configs", "base.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("custom: true\n"), 0o644))

	l := f.launcher()
	l.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, l.Provision(f.dir, root))

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "custom: true\n", string(data))

	marker, err := os.ReadFile(filepath.Join(root, MarkerFile))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T00:00:00Z\n", string(marker))
}

func TestExecRunner(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}

	code, err := ExecRunner{}.Run(context.Background(), Command{
		Path: "/bin/sh",
		Args: []string{"-c", "exit 7"},
		Dir:  t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, code)

	_, err = ExecRunner{}.Run(context.Background(), Command{Path: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
