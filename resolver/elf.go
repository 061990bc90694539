package resolver

import (
	"context"
	"strings"

	internalexec "github.com/victoralfred/gojail/internal/exec"
)

// elfResolver inspects ELF binaries with ldd.
type elfResolver struct {
	runner CommandRunner
	exists func(string) bool
}

func (r *elfResolver) Tool() string {
	return "ldd"
}

func (r *elfResolver) Resolve(ctx context.Context, binaryPath string) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	runCtx, cancel := context.WithTimeout(ctx, inspectTimeout)
	defer cancel()

	result, err := r.runner.Run(runCtx, &internalexec.RunConfig{
		Binary: "ldd",
		Args:   []string{binaryPath},
	})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if result == nil {
		// The tool itself could not be spawned.
		return nil, ErrInspectFailed
	}
	if err != nil || result.ExitCode != 0 {
		// Static binaries make ldd exit non-zero ("not a dynamic
		// executable"); that is an empty closure, not a failure.
		return nil, nil
	}

	return parseELFLinkage(string(result.Stdout), r.exists), nil
}

// parseELFLinkage extracts resolved library paths from ldd output.
// Expected line shape:
//
//	libc.so.6 => /lib/x86_64-linux-gnu/libc.so.6 (0x00007f...)
//
// Lines without a resolved path, such as the vdso entry, are skipped.
// Paths that do not exist on disk are filtered out.
func parseELFLinkage(output string, exists func(string) bool) []string {
	var libs []string
	seen := make(map[string]struct{})

	for _, line := range strings.Split(output, "\n") {
		_, rhs, ok := strings.Cut(line, "=>")
		if !ok {
			continue
		}
		fields := strings.Fields(rhs)
		if len(fields) == 0 {
			continue
		}
		path := fields[0]
		if !strings.HasPrefix(path, "/") {
			// "not found" and virtual objects have no path field.
			continue
		}
		if !exists(path) {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		libs = append(libs, path)
	}

	return libs
}
