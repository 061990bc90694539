package config

import (
	"fmt"
	"sort"
	"strings"
)

// RenderProfile renders the profile text written verbatim into the
// sandbox root user's home. It carries the environment exports and the
// custom shell snippet. Output is deterministic: exports are sorted.
func RenderProfile(s *Settings) string {
	var b strings.Builder
	b.WriteString("# generated by gojail; this sandbox is discarded on exit\n")
	b.WriteString("export PS1='[sandbox] \\w \\$ '\n")

	names := make([]string, 0, len(s.Env))
	for name := range s.Env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "export %s=%s\n", name, shellQuote(s.Env[name]))
	}

	if s.Network.Enabled {
		fmt.Fprintf(&b, "export GOJAIL_NET_PORTS=%s\n", shellQuote(joinPorts(s.Network.AllowedPorts)))
		fmt.Fprintf(&b, "export GOJAIL_NET_RANGES=%s\n", shellQuote(strings.Join(s.Network.AllowedRanges, ",")))
	}

	if s.ShellSnippet != "" {
		b.WriteString("\n")
		b.WriteString(s.ShellSnippet)
		if !strings.HasSuffix(s.ShellSnippet, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// shellQuote single-quotes a value for safe inclusion in shell text.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func joinPorts(ports []int) string {
	parts := make([]string, 0, len(ports))
	for _, p := range ports {
		parts = append(parts, fmt.Sprintf("%d", p))
	}
	return strings.Join(parts, ",")
}
