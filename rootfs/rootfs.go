// Package rootfs creates and owns the ephemeral sandbox root: a
// uniquely named directory holding the minimal Unix skeleton, baseline
// /etc identity files, and the sandbox user's profile. The root exists
// for one session and is removed unconditionally at session end.
package rootfs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/victoralfred/gowritter/safepath"
)

// MountPointName is the in-root directory the external working
// directory is bind-mounted onto.
const MountPointName = "workspace"

// skeletonDirs is the fixed directory skeleton, parents before
// children. Modes that matter are applied explicitly afterwards.
var skeletonDirs = []string{
	"bin",
	"sbin",
	"lib",
	"lib64",
	"usr",
	"usr/bin",
	"usr/sbin",
	"usr/lib",
	"usr/lib64",
	"usr/local",
	"usr/local/bin",
	"etc",
	"dev",
	"proc",
	"sys",
	"tmp",
	"var",
	"var/tmp",
	"home",
	"root",
	"root/.ssh",
	MountPointName,
}

// etcFiles is the fixed /etc content: just enough for user lookup and
// name resolution to work for the single synthetic root user. Not
// configurable.
var etcFiles = map[string]string{
	"etc/passwd":        "root:x:0:0:root:/root:/bin/bash\n",
	"etc/group":         "root:x:0:\n",
	"etc/hosts":         "127.0.0.1\tlocalhost\n::1\tlocalhost\n",
	"etc/resolv.conf":   "nameserver 8.8.8.8\nnameserver 8.8.4.4\n",
	"etc/nsswitch.conf": "passwd: files\ngroup: files\nshadow: files\nhosts: files dns\n",
}

// Root is the sandbox root directory handle. It is the only component
// with real ownership semantics: whoever creates it must arrange for
// Remove to run on every exit path.
type Root struct {
	// Path is the absolute host path of the sandbox root.
	Path string

	fs *safepath.SafePath
}

// New creates a fresh uniquely named sandbox root under baseDir
// (os.TempDir if empty). Failure here is fatal for the session: with
// no root directory there is nothing to build into.
func New(baseDir string) (*Root, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}

	path := filepath.Join(baseDir, "gojail-"+uuid.New().String())
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating sandbox root: %w", err)
	}

	fs, err := safepath.New(path)
	if err != nil {
		//nolint:errcheck // best effort: the directory was just created
		_ = os.RemoveAll(path)
		return nil, fmt.Errorf("confining writes to sandbox root: %w", err)
	}

	return &Root{Path: path, fs: fs}, nil
}

// Scaffold creates the directory skeleton, writes the fixed /etc
// files, applies permission bits, and writes the rendered profile blob
// into the root user's home. It must complete before anything is
// launched inside the root.
func (r *Root) Scaffold(profile string) error {
	for _, dir := range skeletonDirs {
		if err := os.Mkdir(filepath.Join(r.Path, dir), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	// World-writable-sticky temp dirs, owner-only home and key dir.
	for _, dir := range []string{"tmp", "var/tmp"} {
		if err := os.Chmod(filepath.Join(r.Path, dir), os.ModeSticky|0o777); err != nil {
			return fmt.Errorf("chmod %s: %w", dir, err)
		}
	}
	for _, dir := range []string{"root", "root/.ssh"} {
		if err := os.Chmod(filepath.Join(r.Path, dir), 0o700); err != nil {
			return fmt.Errorf("chmod %s: %w", dir, err)
		}
	}

	for name, content := range etcFiles {
		if err := r.fs.WriteFile(name, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	// The profile blob arrives pre-rendered; both login and
	// non-login shells must pick it up.
	for _, name := range []string{"root/.profile", "root/.bashrc"} {
		if err := r.fs.WriteFile(name, []byte(profile), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	return nil
}

// WriteScript writes an executable script at the top of the root and
// returns its in-root path (e.g. "/start.sh").
func (r *Root) WriteScript(name string, content []byte) (string, error) {
	if err := r.fs.WriteFile(name, content, 0o755); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return "/" + name, nil
}

// MountPoint returns the absolute host path of the workspace mount
// point inside the root.
func (r *Root) MountPoint() string {
	return filepath.Join(r.Path, MountPointName)
}

// Remove recursively deletes the sandbox root.
func (r *Root) Remove() error {
	return os.RemoveAll(r.Path)
}
