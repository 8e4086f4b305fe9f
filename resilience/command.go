package resilience

import (
	"context"
	"fmt"

	apperrors "github.com/skillsenselab/reskit/errors"
	"github.com/skillsenselab/reskit/logger"
)

// Operation is a named operation wrapped by the fault-isolation layer.
type Operation func(ctx context.Context, args ...any) (any, error)

// Classifier inspects a failure and returns a non-empty message when the
// failure is the caller's responsibility (a bad request), or "" when it is
// systemic.
type Classifier func(err error) string

// DefaultClassifier treats every failure as systemic; callers opt into
// finer classification per command.
func DefaultClassifier(error) string { return "" }

// CommandSpec declares one operation to wrap: its name, the callable, and
// an optional classification predicate (DefaultClassifier when nil).
type CommandSpec struct {
	Name     string
	Op       Operation
	Classify Classifier
}

// SetConfig configures a command set. The public identifier of each wrapped
// operation is Prefix + name + Suffix. With SharedBreaker set, all commands
// share one breaker state machine; otherwise each command gets its own.
type SetConfig struct {
	Prefix        string
	Suffix        string
	SharedBreaker bool
	Breaker       CircuitBreakerConfig
}

// DefaultSetConfig returns the default command set configuration.
func DefaultSetConfig() SetConfig {
	return SetConfig{
		Prefix:  "cmd-",
		Breaker: DefaultCircuitBreakerConfig("commands"),
	}
}

// command binds a wrapped operation to its breaker and classifier.
// Set once at construction; immutable thereafter.
type command struct {
	id       string
	op       Operation
	classify Classifier
	breaker  *CircuitBreaker
}

// CommandSet holds the circuit-breaker-wrapped variants of a declared set
// of operations, keyed by their generated public identifiers.
type CommandSet struct {
	cfg      SetConfig
	commands map[string]*command
	log      *logger.Logger
}

// NewCommandSet wraps the declared operations. Registration is explicit and
// happens once; the wrapped surface is immutable afterwards.
func NewCommandSet(cfg SetConfig, log *logger.Logger, specs ...CommandSpec) (*CommandSet, error) {
	if cfg.Prefix == "" && cfg.Suffix == "" {
		cfg.Prefix = "cmd-"
	}
	log = log.WithComponent("commands")

	var shared *CircuitBreaker
	if cfg.SharedBreaker {
		shared = NewCircuitBreaker(cfg.Breaker)
	}

	set := &CommandSet{
		cfg:      cfg,
		commands: make(map[string]*command, len(specs)),
		log:      log,
	}

	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("command spec without a name")
		}
		if spec.Op == nil {
			return nil, fmt.Errorf("command %q has no operation", spec.Name)
		}

		id := cfg.Prefix + spec.Name + cfg.Suffix
		if _, exists := set.commands[id]; exists {
			return nil, fmt.Errorf("command %q already registered", id)
		}

		classify := spec.Classify
		if classify == nil {
			classify = DefaultClassifier
		}

		breaker := shared
		if breaker == nil {
			bcfg := cfg.Breaker
			bcfg.Name = id
			breaker = NewCircuitBreaker(bcfg)
		}

		set.commands[id] = &command{
			id:       id,
			op:       spec.Op,
			classify: classify,
			breaker:  breaker,
		}
		log.Debug("Generated circuit-breaker command", logger.Fields("command", id))
	}

	return set, nil
}

// Invoke calls the wrapped operation registered under the given public
// identifier with the caller's arguments.
//
// On success the value is returned unchanged and recorded toward breaker
// health. On failure the classifier runs: a non-empty message surfaces as
// CALLER_FAULT and is excluded from trip accounting; otherwise the original
// error surfaces as SYSTEM_FAULT (unwrappable to the original) and counts
// toward opening the circuit. When the circuit is open the call fails with
// CIRCUIT_OPEN without invoking the underlying operation.
func (s *CommandSet) Invoke(ctx context.Context, id string, args ...any) (any, error) {
	cmd, ok := s.commands[id]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", id)
	}

	if !cmd.breaker.Allow() {
		return nil, apperrors.CircuitOpen(cmd.id)
	}

	value, err := cmd.op(ctx, args...)
	if err == nil {
		cmd.breaker.RecordSuccess()
		return value, nil
	}

	if msg := cmd.classify(err); msg != "" {
		// Bad request: the dependency is healthy, so the breaker is not
		// told and the call slot goes back for the next caller.
		cmd.breaker.Release()
		return nil, apperrors.CallerFault(msg, err)
	}

	cmd.breaker.RecordFailure()
	s.log.Warn("Command failed", logger.ErrorFields(cmd.id, err))
	return nil, apperrors.SystemFault(err)
}

// Operation returns the wrapped variant of the identified command, or false
// when no such command exists.
func (s *CommandSet) Operation(id string) (Operation, bool) {
	if _, ok := s.commands[id]; !ok {
		return nil, false
	}
	return func(ctx context.Context, args ...any) (any, error) {
		return s.Invoke(ctx, id, args...)
	}, true
}

// Names returns the generated public identifiers of all wrapped operations.
func (s *CommandSet) Names() []string {
	names := make([]string, 0, len(s.commands))
	for id := range s.commands {
		names = append(names, id)
	}
	return names
}

// Breaker returns the breaker backing the identified command, or nil when
// no such command exists.
func (s *CommandSet) Breaker(id string) *CircuitBreaker {
	if cmd, ok := s.commands[id]; ok {
		return cmd.breaker
	}
	return nil
}
