package gojail

import (
	"context"

	"github.com/victoralfred/gojail/config"
	"github.com/victoralfred/gojail/hooks"
	"github.com/victoralfred/gojail/session"
)

// Version is the library version.
const Version = "1.0.0"

// Run assembles a sandbox for settings, binds workdir onto its
// workspace, and blocks until the sandboxed shell exits. It returns
// the shell's exit code; a non-zero code is a normal outcome, not an
// error. The sandbox root is removed before Run returns.
func Run(ctx context.Context, settings config.Settings, workdir string) (int, error) {
	sess, err := NewBuilder().WithSettings(settings).Build()
	if err != nil {
		return 0, err
	}
	result, err := sess.Run(ctx, workdir)
	if err != nil {
		return 0, err
	}
	return result.ExitCode, nil
}

// LoadSettings reads and validates a YAML settings file under
// basePath.
func LoadSettings(basePath, file string) (*config.Settings, error) {
	return config.LoadSettings(basePath, file)
}

// Builder constructs sessions with custom wiring. The zero value via
// NewBuilder uses the default configuration.
type Builder struct {
	cfg  config.SessionConfig
	opts []session.Option
}

// NewBuilder returns a Builder with default configuration.
func NewBuilder() *Builder {
	return &Builder{cfg: config.DefaultSessionConfig()}
}

// WithSettings sets the user-facing sandbox settings.
func (b *Builder) WithSettings(settings config.Settings) *Builder {
	b.cfg.Settings = settings
	return b
}

// WithConfig replaces the whole session configuration.
func (b *Builder) WithConfig(cfg config.SessionConfig) *Builder {
	b.cfg = cfg
	return b
}

// WithBaseDir sets the directory sandbox roots are created under.
func (b *Builder) WithBaseDir(dir string) *Builder {
	b.opts = append(b.opts, session.WithBaseDir(dir))
	return b
}

// WithHooks sets the lifecycle hook registry.
func (b *Builder) WithHooks(registry *hooks.Registry) *Builder {
	b.opts = append(b.opts, session.WithHooks(registry))
	return b
}

// WithSessionOptions appends raw session options, overriding anything
// the builder set for the same concern.
func (b *Builder) WithSessionOptions(opts ...session.Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Build validates the configuration and wires a session.
func (b *Builder) Build() (*session.Session, error) {
	return session.New(b.cfg, b.opts...)
}
