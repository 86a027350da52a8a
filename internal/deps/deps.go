// Package deps resolves the external engine binaries.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

func binaryName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

// find resolves an engine binary. Resolution order: explicit path, assetDir,
// then PATH lookup.
func find(name, explicit, assetDir string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		if p, err := exec.LookPath(explicit); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("could not find %s at %q", name, explicit)
	}
	if assetDir != "" {
		p := filepath.Join(assetDir, binaryName(name))
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("could not find %s under %q", name, assetDir)
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("could not find %s in PATH. Please install ffmpeg.", name)
}

// FindFFmpeg returns the path to the ffmpeg binary.
func FindFFmpeg(explicit, assetDir string) (string, error) {
	return find("ffmpeg", explicit, assetDir)
}

// FindFFprobe returns the path to the ffprobe binary.
func FindFFprobe(explicit, assetDir string) (string, error) {
	return find("ffprobe", explicit, assetDir)
}
