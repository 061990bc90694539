package resolver

import (
	"context"
	"strings"

	internalexec "github.com/victoralfred/gojail/internal/exec"
)

// machoResolver inspects Mach-O binaries with otool.
type machoResolver struct {
	runner CommandRunner
	exists func(string) bool
}

func (r *machoResolver) Tool() string {
	return "otool"
}

func (r *machoResolver) Resolve(ctx context.Context, binaryPath string) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	runCtx, cancel := context.WithTimeout(ctx, inspectTimeout)
	defer cancel()

	result, err := r.runner.Run(runCtx, &internalexec.RunConfig{
		Binary: "otool",
		Args:   []string{"-L", binaryPath},
	})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if result == nil {
		return nil, ErrInspectFailed
	}
	if err != nil || result.ExitCode != 0 {
		return nil, nil
	}

	return parseMachOLinkage(string(result.Stdout), r.exists), nil
}

// parseMachOLinkage extracts library paths from otool -L output.
// Expected shape: a header line naming the binary, then indented
// continuation lines:
//
//	/bin/ls:
//		/usr/lib/libutil.dylib (compatibility version 1.0.0, ...)
//
// The first whitespace-delimited token of each continuation line is
// the install path. Paths that do not exist on disk (e.g. entries
// served from the shared dyld cache) are filtered out.
func parseMachOLinkage(output string, exists func(string) bool) []string {
	var libs []string
	seen := make(map[string]struct{})

	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "\t") && !strings.HasPrefix(line, " ") {
			// Header line (or garbage), not a dependency entry.
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		path := fields[0]
		if !strings.HasPrefix(path, "/") {
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
