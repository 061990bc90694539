package launcher

import (
	"fmt"
	"path"
	"strings"

	"github.com/victoralfred/gojail/rootfs"
)

// ScriptParams carries everything the startup script embeds at
// generation time. All host paths are captured here so the script
// itself is self-contained once written into the root.
type ScriptParams struct {
	// Workdir is the host directory bound onto the workspace mount
	// point inside the sandbox. Empty disables the bind attempt.
	Workdir string

	// HomeDir is the host home directory credentials are pulled
	// from when the workspace does not provide them.
	HomeDir string

	// SSHKeys lists key file basenames to copy into the sandbox.
	// An empty list copies every file found in the .ssh directory.
	SSHKeys []string

	// Interactive selects an interactive login shell.
	Interactive bool
}

// BuildScript renders the startup script executed as the entry point
// of every isolation strategy. Every step before the final exec is
// best-effort: a failed mount or a missing credential degrades the
// sandbox, it never aborts the session.
func BuildScript(p ScriptParams) []byte {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	b.WriteString("# Sandbox startup. Every step before the final exec is\n")
	b.WriteString("# best-effort; the shell starts even when a step fails.\n\n")

	workspace := "/" + rootfs.MountPointName
	if p.Workdir != "" {
		fmt.Fprintf(&b, "mount --bind %s %s 2>/dev/null || true\n\n", shellQuote(p.Workdir), shellQuote(workspace))
	}

	b.WriteString("copy_first() {\n")
	b.WriteString("\tdest=$1\n")
	b.WriteString("\tshift\n")
	b.WriteString("\tfor src in \"$@\"; do\n")
	b.WriteString("\t\t[ -e \"$src\" ] && cp -f \"$src\" \"$dest\" 2>/dev/null && return 0\n")
	b.WriteString("\tdone\n")
	b.WriteString("\treturn 0\n")
	b.WriteString("}\n\n")

	// Git identity: the workspace copy wins over the host home copy.
	fmt.Fprintf(&b, "copy_first /root/.gitconfig %s %s\n",
		shellQuote(workspace+"/.gitconfig"),
		shellQuote(path.Join(p.HomeDir, ".gitconfig")))

	if len(p.SSHKeys) == 0 {
		fmt.Fprintf(&b, "cp -f %s/.ssh/* /root/.ssh/ 2>/dev/null || true\n", shellQuote(p.HomeDir))
		fmt.Fprintf(&b, "cp -f %s/.ssh/* /root/.ssh/ 2>/dev/null || true\n", shellQuote(workspace))
	} else {
		for _, key := range p.SSHKeys {
			fmt.Fprintf(&b, "copy_first /root/.ssh/%s %s %s\n",
				key,
				shellQuote(workspace+"/.ssh/"+key),
				shellQuote(path.Join(p.HomeDir, ".ssh", key)))
		}
	}
	b.WriteString("chmod 600 /root/.ssh/* 2>/dev/null || true\n\n")

	b.WriteString("[ -f /root/.profile ] && . /root/.profile\n")
	fmt.Fprintf(&b, "cd %s 2>/dev/null || cd /\n\n", shellQuote(workspace))

	if p.Interactive {
		b.WriteString("exec /bin/bash -l -i\n")
	} else {
		b.WriteString("exec /bin/bash -l\n")
	}
	return []byte(b.String())
}

// shellQuote wraps s in single quotes, escaping embedded quotes so the
// result is safe to splice into the generated script.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
