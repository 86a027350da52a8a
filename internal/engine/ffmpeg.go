package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RevoLabs-IO/video2gif/internal/execx"
)

// FFmpeg is an Engine backed by an ffmpeg subprocess operating on a private
// workspace directory.
type FFmpeg struct {
	runner execx.Runner
	logger *slog.Logger

	cfg    Config
	dir    string
	loaded bool
}

// NewFFmpeg constructs an unloaded ffmpeg engine. A nil runner defaults to
// the os/exec-backed one; a nil logger disables diagnostics.
func NewFFmpeg(runner execx.Runner, logger *slog.Logger) *FFmpeg {
	if runner == nil {
		runner = execx.NewRunner()
	}
	return &FFmpeg{runner: runner, logger: logger}
}

// Load verifies the binary and creates the workspace directory.
func (f *FFmpeg) Load(_ context.Context, cfg Config) error {
	if f.loaded {
		return errors.New("engine already loaded")
	}
	if cfg.BinaryPath == "" {
		return errors.New("engine binary path is required")
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return fmt.Errorf("engine binary %q: %w", cfg.BinaryPath, err)
	}

	base := filepath.Join(os.TempDir(), "video2gif")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return fmt.Errorf("create workspace base: %w", err)
	}
	dir, err := os.MkdirTemp(base, "engine-")
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	f.cfg = cfg
	f.dir = dir
	f.loaded = true
	return nil
}

func (f *FFmpeg) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid workspace file name %q", name)
	}
	return filepath.Join(f.dir, name), nil
}

// WriteFile stores data under name inside the workspace.
func (f *FFmpeg) WriteFile(name string, data []byte) error {
	if !f.loaded {
		return errors.New("engine is not loaded")
	}
	p, err := f.path(name)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// ReadFile returns the bytes of a workspace file.
func (f *FFmpeg) ReadFile(name string) ([]byte, error) {
	if !f.loaded {
		return nil, errors.New("engine is not loaded")
	}
	p, err := f.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// FilePath returns the absolute path of a workspace file, letting external
// collaborators (the metadata prober) read it in place.
func (f *FFmpeg) FilePath(name string) (string, error) {
	if !f.loaded {
		return "", errors.New("engine is not loaded")
	}
	return f.path(name)
}

// Remove deletes a workspace file if present.
func (f *FFmpeg) Remove(name string) error {
	if !f.loaded {
		return errors.New("engine is not loaded")
	}
	p, err := f.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exec runs one ffmpeg invocation inside the workspace. The configured
// thread count is injected ahead of the caller's argv so the loader's
// threading decision applies to every command.
func (f *FFmpeg) Exec(ctx context.Context, argv []string, onLine func(string)) error {
	if !f.loaded {
		return errors.New("engine is not loaded")
	}
	args := []string{"-hide_banner", "-threads", strconv.Itoa(f.cfg.Threads)}
	args = append(args, argv...)

	res, err := f.runner.Run(ctx, execx.Spec{
		Path:          f.cfg.BinaryPath,
		Args:          args,
		Dir:           f.dir,
		Verbose:       f.cfg.Verbose,
		StdoutLine:    onLine,
		CaptureStdout: false,
	})
	if err != nil {
		tail := lastLines(string(res.Stderr), 5)
		if tail != "" {
			return fmt.Errorf("%w: %s", err, tail)
		}
		return err
	}
	return nil
}

// Close removes the workspace directory.
func (f *FFmpeg) Close() error {
	if !f.loaded {
		return nil
	}
	f.loaded = false
	if f.dir == "" {
		return nil
	}
	if err := os.RemoveAll(f.dir); err != nil {
		if f.logger != nil {
			f.logger.Warn("engine workspace cleanup failed", "dir", f.dir, "error", err)
		}
		return err
	}
	return nil
}

// lastLines returns the last n non-empty lines of s joined by "; ".
func lastLines(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}
