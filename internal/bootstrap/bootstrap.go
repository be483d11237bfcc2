// Package bootstrap provisions the runtime workspace of the dataset service
// and launches it.
//
// On the first run the launcher creates the workspace directory, provisions
// every entry of the manifest, and writes an installed marker. Later runs
// find the marker and go straight to launching. The launcher always moves
// to its own directory first.
package bootstrap

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jsamuelsen/eda-panel/internal/sample"
)

// EnvWorkspaceRoot tells the launched program where its workspace is.
const EnvWorkspaceRoot = "APP_WORKSPACE_ROOT"

// MarkerFile records a completed provisioning inside the workspace.
const MarkerFile = ".installed"

const defaultSampleRows = 500

//go:embed templates
var templatesFS embed.FS

// DefaultManifest is written next to the launcher when none exists.
const DefaultManifest = `# eda-panel workspace
dir inbox
dir logs
dir reports
template configs/base.yaml
sample inbox/sample_data.csv 500
`

// Config locates the launcher's inputs. Relative paths are resolved against
// the launcher directory.
type Config struct {
	Root     string
	Manifest string
	Entry    string
}

// Runner starts the main program and waits for it.
type Runner interface {
	Run(ctx context.Context, cmd Command) (exitCode int, err error)
}

// Command is the program a Runner starts.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

// Launcher provisions the workspace and runs the main program.
type Launcher struct {
	cfg    Config
	runner Runner
	logger *slog.Logger

	executable func() (string, error)
	chdir      func(string) error
	environ    func() []string
	now        func() time.Time
	templates  fs.FS
}

// Option customizes a Launcher.
type Option func(*Launcher)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(l *Launcher) { l.runner = r }
}

// WithExecutable replaces the lookup of the launcher's own path.
func WithExecutable(fn func() (string, error)) Option {
	return func(l *Launcher) { l.executable = fn }
}

// WithChdir replaces the working directory change.
func WithChdir(fn func(string) error) Option {
	return func(l *Launcher) { l.chdir = fn }
}

// WithEnviron replaces the inherited environment.
func WithEnviron(fn func() []string) Option {
	return func(l *Launcher) { l.environ = fn }
}

// New creates a Launcher.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Launcher{
		cfg:        cfg,
		runner:     ExecRunner{},
		logger:     logger,
		executable: os.Executable,
		chdir:      os.Chdir,
		environ:    os.Environ,
		now:        time.Now,
		templates:  templatesFS,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Result reports what a launch did.
type Result struct {
	Dir         string
	Root        string
	Provisioned bool
	ExitCode    int
}

// Run moves to the launcher directory, provisions the workspace if it is
// missing, and runs the main program with args. The exit code of the
// program is returned in Result.
func (l *Launcher) Run(ctx context.Context, args ...string) (Result, error) {
	dir, err := l.ownDir()
	if err != nil {
		return Result{}, err
	}

	if err := l.chdir(dir); err != nil {
		return Result{}, fmt.Errorf("changing to launcher directory: %w", err)
	}

	res := Result{Dir: dir, Root: l.resolve(dir, l.cfg.Root)}

	installed, err := l.installed(res.Root)
	if err != nil {
		return res, err
	}

	if !installed {
		if err := l.Provision(dir, res.Root); err != nil {
			return res, err
		}

		res.Provisioned = true
	} else {
		l.logger.Debug("workspace found", slog.String("root", res.Root))
	}

	entry := l.resolve(dir, l.cfg.Entry)
	if _, err := os.Stat(entry); err != nil {
		return res, fmt.Errorf("main program %s: %w", entry, err)
	}

	l.logger.Info("launching", slog.String("entry", entry), slog.String("workspace", res.Root))

	code, err := l.runner.Run(ctx, Command{
		Path: entry,
		Args: args,
		Dir:  res.Root,
		Env:  append(l.environ(), EnvWorkspaceRoot+"="+res.Root),
	})
	res.ExitCode = code

	if err != nil {
		return res, fmt.Errorf("running %s: %w", filepath.Base(entry), err)
	}

	return res, nil
}

// Provision creates root and every manifest entry, then writes the marker.
// A missing manifest is created from DefaultManifest.
func (l *Launcher) Provision(dir, root string) error {
	entries, err := l.manifest(dir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("creating workspace: %w", err)
	}

	for _, e := range entries {
		if err := l.provisionEntry(root, e); err != nil {
			return fmt.Errorf("manifest line %d (%s %s): %w", e.Line, e.Kind, e.Path, err)
		}

		l.logger.Info("provisioned", slog.String("kind", string(e.Kind)), slog.String("path", e.Path))
	}

	marker := filepath.Join(root, MarkerFile)
	stamp := l.now().UTC().Format(time.RFC3339) + "\n"

	if err := os.WriteFile(marker, []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("writing install marker: %w", err)
	}

	return nil
}

func (l *Launcher) manifest(dir string) ([]Entry, error) {
	path := l.resolve(dir, l.cfg.Manifest)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, []byte(DefaultManifest), 0o644); err != nil {
			return nil, fmt.Errorf("writing default manifest: %w", err)
		}

		f, err = os.Open(path)
	}

	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	return ParseManifest(f)
}

func (l *Launcher) provisionEntry(root string, e Entry) error {
	dst := filepath.Join(root, e.Path)

	switch e.Kind {
	case EntryDir:
		return os.MkdirAll(dst, 0o755)

	case EntryTemplate:
		data, err := fs.ReadFile(l.templates, filepath.ToSlash(filepath.Join("templates", e.Path)))
		if err != nil {
			return fmt.Errorf("no embedded template: %w", err)
		}

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}

		if _, err := os.Stat(dst); err == nil {
			return nil
		}

		return os.WriteFile(dst, data, 0o644)

	case EntrySample:
		_, err := sample.WriteFile(dst, sample.Options{Rows: e.Rows, Seed: 42, Now: l.now()})
		return err

	default:
		return fmt.Errorf("unknown entry kind %q", e.Kind)
	}
}

func (l *Launcher) installed(root string) (bool, error) {
	_, err := os.Stat(filepath.Join(root, MarkerFile))

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("checking workspace: %w", err)
	}
}

func (l *Launcher) ownDir() (string, error) {
	exe, err := ResolveExecutable(l.executable)
	if err != nil {
		return "", err
	}

	return filepath.Dir(exe), nil
}

// ResolveExecutable returns the path reported by executable with symlinks
// resolved, so a launcher started through a link works in the directory of
// the real binary.
func ResolveExecutable(executable func() (string, error)) (string, error) {
	exe, err := executable()
	if err != nil {
		return "", fmt.Errorf("locating launcher: %w", err)
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return exe, nil
}

func (l *Launcher) resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}
