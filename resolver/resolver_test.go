package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	internalexec "github.com/victoralfred/gojail/internal/exec"
)

// fakeRunner returns a canned result for every Run call.
type fakeRunner struct {
	stdout   string
	exitCode int
	err      error
	calls    int
}

func (f *fakeRunner) Run(ctx context.Context, config *internalexec.RunConfig) (*internalexec.RunResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &internalexec.RunResult{
		ExitCode: f.exitCode,
		Stdout:   []byte(f.stdout),
	}, nil
}

func allExist(string) bool { return true }

func TestParseELFLinkage(t *testing.T) {
	output := `	linux-vdso.so.1 (0x00007ffd8a5f2000)
	libtinfo.so.6 => /lib/x86_64-linux-gnu/libtinfo.so.6 (0x00007f0a37a80000)
	libc.so.6 => /lib/x86_64-linux-gnu/libc.so.6 (0x00007f0a37800000)
	/lib64/ld-linux-x86-64.so.2 (0x00007f0a37c00000)
	libmissing.so => not found
`

	got := parseELFLinkage(output, allExist)
	want := []string{
		"/lib/x86_64-linux-gnu/libtinfo.so.6",
		"/lib/x86_64-linux-gnu/libc.so.6",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseELFLinkage = %v, want %v", got, want)
	}
}

func TestParseELFLinkage_FiltersNonexistent(t *testing.T) {
	output := "\tlibc.so.6 => /lib/libc.so.6 (0x1)\n\tlibgone.so => /lib/libgone.so (0x2)\n"
	exists := func(p string) bool { return p == "/lib/libc.so.6" }

	got := parseELFLinkage(output, exists)
	if !reflect.DeepEqual(got, []string{"/lib/libc.so.6"}) {
		t.Errorf("parseELFLinkage = %v, want only the existing path", got)
	}
}

func TestParseELFLinkage_Deduplicates(t *testing.T) {
	output := "\ta.so => /lib/a.so (0x1)\n\tb.so => /lib/a.so (0x2)\n"
	got := parseELFLinkage(output, allExist)
	if len(got) != 1 {
		t.Errorf("parseELFLinkage = %v, want one entry", got)
	}
}

func TestParseMachOLinkage(t *testing.T) {
	output := `/bin/ls:
	/usr/lib/libutil.dylib (compatibility version 1.0.0, current version 1.0.0)
	/usr/lib/libncurses.5.4.dylib (compatibility version 5.4.0, current version 5.4.0)
	/usr/lib/libSystem.B.dylib (compatibility version 1.0.0, current version 1319.0.0)
`

	got := parseMachOLinkage(output, allExist)
	want := []string{
		"/usr/lib/libutil.dylib",
		"/usr/lib/libncurses.5.4.dylib",
		"/usr/lib/libSystem.B.dylib",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseMachOLinkage = %v, want %v", got, want)
	}
}

func TestParseMachOLinkage_SkipsHeaderAndMissing(t *testing.T) {
	output := "/bin/ls:\n\t/usr/lib/libSystem.B.dylib (compatibility version 1.0.0)\n"
	exists := func(p string) bool { return false }

	if got := parseMachOLinkage(output, exists); len(got) != 0 {
		t.Errorf("parseMachOLinkage = %v, want empty for cache-only entries", got)
	}
}

func TestResolve_StaticBinaryIsEmptyNotError(t *testing.T) {
	// ldd exits 1 for "not a dynamic executable".
	r := &elfResolver{runner: &fakeRunner{exitCode: 1}, exists: allExist}

	libs, err := r.Resolve(context.Background(), "/usr/bin/static")
	if err != nil {
		t.Fatalf("Resolve returned error for static binary: %v", err)
	}
	if len(libs) != 0 {
		t.Errorf("libs = %v, want empty", libs)
	}
}

func TestResolve_MissingToolReportsInspectFailure(t *testing.T) {
	r := &elfResolver{
		runner: &fakeRunner{err: errors.New("exec: \"ldd\": executable file not found")},
		exists: allExist,
	}

	libs, err := r.Resolve(context.Background(), "/usr/bin/bash")
	if !errors.Is(err, ErrInspectFailed) {
		t.Fatalf("Resolve = %v, want ErrInspectFailed", err)
	}
	if len(libs) != 0 {
		t.Errorf("libs = %v, want empty", libs)
	}
}

func TestResolve_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &elfResolver{runner: &fakeRunner{}, exists: allExist}
	if _, err := r.Resolve(ctx, "/usr/bin/bash"); !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve = %v, want context.Canceled", err)
	}
}

func TestResolve_RealFileFilter(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "libreal.so")
	if err := os.WriteFile(lib, []byte("elf"), 0o644); err != nil {
		t.Fatal(err)
	}

	output := "\tlibreal.so => " + lib + " (0x1)\n\tlibfake.so => " + filepath.Join(dir, "libfake.so") + " (0x2)\n"
	r := &elfResolver{runner: &fakeRunner{stdout: output}, exists: fileExists}

	libs, err := r.Resolve(context.Background(), "/usr/bin/whatever")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !reflect.DeepEqual(libs, []string{lib}) {
		t.Errorf("libs = %v, want [%s]", libs, lib)
	}
}

func TestForPlatform(t *testing.T) {
	if tool := ForPlatform("darwin", &fakeRunner{}).Tool(); tool != "otool" {
		t.Errorf("darwin resolver tool = %q, want otool", tool)
	}
	if tool := ForPlatform("linux", &fakeRunner{}).Tool(); tool != "ldd" {
		t.Errorf("linux resolver tool = %q, want ldd", tool)
	}
}
