package mcphost

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// LaunchSpec describes the server subprocess.
type LaunchSpec struct {
	Command string
	Args    []string
	// Env entries are appended to the current environment.
	Env []string
	Dir string
	// Stderr receives the server's diagnostics; nil discards them.
	Stderr io.Writer
}

// FileSystem abstracts the file checks made while resolving a launch command.
type FileSystem interface {
	Exists(path string) bool
	Abs(path string) (string, error)
}

// OSFileSystem implements FileSystem using the real OS.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

// Override replaces command resolution with an explicit command line.
type Override struct {
	Command string
	Args    []string
	Env     []string
}

// uvProjectFiles mark a directory as a uv project.
var uvProjectFiles = []string{"uv.lock", "pyproject.toml"}

// ResolveLaunch picks the command that runs the server at scriptPath.
//
// A .py script runs under "uv run" when its directory is a uv project and
// under python otherwise; anything else runs under node. A non-empty
// override.Command wins, with the script path appended to its args.
func ResolveLaunch(fs FileSystem, scriptPath string, override Override) (LaunchSpec, error) {
	if scriptPath == "" {
		return LaunchSpec{}, errors.New("server script path is required")
	}

	if override.Command != "" {
		args := append(append([]string(nil), override.Args...), scriptPath)
		return LaunchSpec{Command: override.Command, Args: args, Env: override.Env}, nil
	}

	if !strings.HasSuffix(scriptPath, ".py") {
		return LaunchSpec{Command: "node", Args: []string{scriptPath}, Env: override.Env}, nil
	}

	abs, err := fs.Abs(scriptPath)
	if err != nil {
		return LaunchSpec{}, errors.Wrapf(err, "failed to resolve %s", scriptPath)
	}
	dir := filepath.Dir(abs)

	for _, name := range uvProjectFiles {
		if fs.Exists(filepath.Join(dir, name)) {
			return LaunchSpec{
				Command: "uv",
				Args:    []string{"run", "--directory", dir, "python", filepath.Base(abs)},
				Env:     override.Env,
			}, nil
		}
	}

	return LaunchSpec{Command: "python", Args: []string{scriptPath}, Env: override.Env}, nil
}
