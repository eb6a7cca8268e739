// Package engine invokes the native numerical binaries that perform OTF
// conversion and SIM reconstruction. The engine writes its output files as a
// side effect; its diagnostics are replayed onto the OS-level standard
// streams so a surrounding capture scope can persist them.
package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"

	"github.com/visimlab/simrecon/model/types"
	"github.com/visimlab/simrecon/tracing"
)

const (
	defaultOTFCommand   = "makeotf"
	defaultReconCommand = "cudasirecon"
)

// Service runs engine binaries, each invocation in a shell session of its
// own. Sessions are never shared; concurrent invocations cannot observe
// each other's working directory or diagnostics.
type Service struct {
	otfCommand   string
	reconCommand string
	env          map[string]string
}

var _ types.Invoker = (*Service)(nil)

// Option customises the engine service.
type Option func(*Service)

// WithOTFCommand overrides the OTF conversion binary.
func WithOTFCommand(command string) Option {
	return func(s *Service) { s.otfCommand = command }
}

// WithReconCommand overrides the reconstruction binary.
func WithReconCommand(command string) Option {
	return func(s *Service) { s.reconCommand = command }
}

// WithEnv sets environment variables for engine invocations.
func WithEnv(env map[string]string) Option {
	return func(s *Service) { s.env = env }
}

// New creates an engine service.
func New(options ...Option) *Service {
	s := &Service{otfCommand: defaultOTFCommand, reconCommand: defaultReconCommand}
	for _, option := range options {
		option(s)
	}
	return s
}

// Invoke runs one engine invocation to completion. The working directory
// change and the engine command form a single shell command, so no state is
// left behind for a later invocation. No timeout or retry is applied here;
// both belong to the caller.
func (s *Service) Invoke(ctx context.Context, request *types.InvokeRequest) (err error) {
	command, err := s.buildCommand(request)
	if err != nil {
		return err
	}
	if request.Workdir != "" {
		command = fmt.Sprintf("cd %s && %s", quoteArg(request.Workdir), command)
	}

	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("engine.Invoke %s", request.Kind), "CLIENT")
	defer tracing.EndSpan(span, err)
	span.WithAttributes(map[string]string{"engine.command": command})

	session, err := s.newSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	stdout, status, err := session.Run(ctx, command)
	if stdout != "" {
		s.emit(request.LogPath, stdout)
	}
	if err != nil {
		return fmt.Errorf("engine invocation failed: %w", err)
	}
	if status != 0 {
		return &types.ExitError{Command: s.commandFor(request.Kind), Code: status}
	}
	return nil
}

// emit persists diagnostics. With a dedicated log destination the output is
// appended there; otherwise it is replayed onto the low-level stream so a
// surrounding capture scope can see it.
func (s *Service) emit(logPath, stdout string) {
	if logPath == "" {
		fmt.Fprintln(os.Stdout, stdout)
		return
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stdout, stdout)
		return
	}
	defer file.Close()
	fmt.Fprintln(file, stdout)
}

func (s *Service) commandFor(kind types.OutputKind) string {
	if kind == types.KindRecon {
		return s.reconCommand
	}
	return s.otfCommand
}

// newSession opens a fresh local shell session for one invocation.
func (s *Service) newSession(ctx context.Context) (*gosh.Service, error) {
	var envOptions []runner.Option
	if len(s.env) > 0 {
		envOptions = append(envOptions, runner.WithEnvironment(s.env))
	}
	return gosh.New(ctx, local.New(envOptions...))
}
