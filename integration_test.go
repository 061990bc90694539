//go:build integration
// +build integration

package gojail

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/victoralfred/gojail/config"
	internalexec "github.com/victoralfred/gojail/internal/exec"
	"github.com/victoralfred/gojail/resolver"
)

// TestIntegration_SandboxRoundTrip assembles a real sandbox with the
// host's own binaries and runs a non-interactive shell in it. It needs
// bash and the platform inspection tool on the host; isolation falls
// back to a direct shell when the test runs unprivileged.
func TestIntegration_SandboxRoundTrip(t *testing.T) {
	if _, err := os.Stat("/bin/bash"); err != nil {
		t.Skip("/bin/bash not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	workdir := t.TempDir()
	cfg := config.DefaultSessionConfig()
	cfg.BaseApplications = []string{"bash", "sh", "ls"}

	sess, err := NewBuilder().WithConfig(cfg).WithBaseDir(t.TempDir()).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	result, err := sess.Run(ctx, workdir)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Manifest.Executables) == 0 {
		t.Error("no executables resolved")
	}
	if _, statErr := os.Stat(result.RootPath); !os.IsNotExist(statErr) {
		t.Errorf("root %s not removed after run", result.RootPath)
	}
}

// TestIntegration_ResolverAgainstHostShell runs the real linker tool
// against the host shell and expects every reported library to exist
// on disk.
func TestIntegration_ResolverAgainstHostShell(t *testing.T) {
	if _, err := os.Stat("/bin/bash"); err != nil {
		t.Skip("/bin/bash not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res := resolver.New(internalexec.NewRunner())
	libs, err := res.Resolve(ctx, "/bin/bash")
	if err != nil {
		t.Skipf("inspection tool unavailable: %v", err)
	}
	for _, lib := range libs {
		if !filepath.IsAbs(lib) {
			t.Errorf("library %q is not absolute", lib)
		}
		if _, statErr := os.Stat(lib); statErr != nil {
			t.Errorf("library %q does not exist: %v", lib, statErr)
		}
	}
}
