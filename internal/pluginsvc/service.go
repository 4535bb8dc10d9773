// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

// Package pluginsvc is the service façade: it owns the registry, the
// resolver, and the lifecycle engine behind a single mutex, and exposes the
// operations spec.md §4.5 names (Register, LoadAll, Unload, Shutdown).
package pluginsvc

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/AerafalDev/Qosmos/internal/lifecycle"
	"github.com/AerafalDev/Qosmos/internal/registry"
	"github.com/AerafalDev/Qosmos/internal/resolve"
	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// Service is the concurrency-safe entry point for the plugin subsystem. All
// mutable state is guarded by a single mutex: the operations this package
// exposes are infrequent and individually cheap, so a coarse lock is
// simpler and safer than fine-grained per-instance locking.
type Service struct {
	mu sync.Mutex

	factory     pluginapi.InstanceFactory
	logger      pluginapi.Logger
	metrics     *metrics
	hostVersion pluginapi.Version

	registry *registry.Registry

	// state is the service-wide lifecycle state spec.md §4.5 gates every
	// operation's precondition on. It reuses pluginapi.State but only ever
	// takes None (never loaded), Setup (a LoadAll/Load pass is in progress),
	// Start (at least one pass has completed successfully), or Shutdown
	// (terminal). It never becomes Disabled/Enabled — those describe
	// per-instance state, not the service as a whole.
	state pluginapi.State

	// instances and loadOrder are populated by LoadAll and held until the
	// next LoadAll or a full Shutdown; they are not meant to survive across
	// a Shutdown/LoadAll cycle, which is why Shutdown clears both.
	instances map[pluginapi.Identifier]*pluginapi.Instance
	loadOrder []pluginapi.Identifier

	// registrationOrder preserves the sequence in which ad-hoc instances
	// were registered, used as the shutdown fallback when no load order has
	// been computed for them (spec.md §9, shutdown-order decision).
	registrationOrder []pluginapi.Identifier

	engine *lifecycle.Engine
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithMetricsRegistry registers the service's Prometheus collectors against
// reg. Omit to run without metrics (e.g. in unit tests).
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(s *Service) { s.metrics = newMetrics(reg) }
}

// WithHostVersion sets the host version every candidate's serverVersion
// range is checked against (spec.md §4.3). Omit to leave it unset, which
// fails any candidate that declares a serverVersion constraint.
func WithHostVersion(v pluginapi.Version) Option {
	return func(s *Service) { s.hostVersion = v }
}

// New constructs a Service backed by factory for instance construction and
// logger for lifecycle logging.
func New(factory pluginapi.InstanceFactory, logger pluginapi.Logger, opts ...Option) *Service {
	s := &Service{
		factory:   factory,
		logger:    logger,
		registry:  registry.New(),
		instances: make(map[pluginapi.Identifier]*pluginapi.Instance),
		engine:    lifecycle.New(),
		state:     pluginapi.StateNone,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requireStateLocked enforces spec.md §4.5's precondition table: op may only
// run when the service's current state is one of allowed. Callers must hold
// s.mu. A violation is a non-recoverable programmer error (spec.md §7).
func (s *Service) requireStateLocked(op string, allowed ...pluginapi.State) error {
	for _, a := range allowed {
		if s.state == a {
			return nil
		}
	}
	return oops.Code("PLUGIN_INVALID_STATE").
		With("operation", op).
		With("state", s.state.String()).
		Errorf("%s: service state %s does not permit this operation", op, s.state)
}

// Register adds a candidate unit to the pending registry. It does not
// construct or start anything; LoadAll does that for every unit registered
// since the last LoadAll.
func (s *Service) Register(unit *pluginapi.CandidateUnit) error {
	return s.registry.Register(unit)
}

// LoadAll drains the pending registry, resolves a load order across it and
// every already-enabled instance, constructs instances for newly registered
// units, and runs the Setup and Start passes over the whole set. The
// resolved load order is cached for Unload/Shutdown and discarded once a
// fresh LoadAll recomputes it.
func (s *Service) LoadAll(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked("setup", pluginapi.StateNone, pluginapi.StateStart); err != nil {
		return err
	}
	previousState := s.state
	s.state = pluginapi.StateSetup
	defer func() {
		if err != nil {
			s.state = previousState
		}
	}()

	candidates := s.registry.Drain()
	if len(candidates) == 0 && len(s.instances) == 0 {
		s.state = pluginapi.StateStart
		return nil
	}

	full := make(map[pluginapi.Identifier]*pluginapi.CandidateUnit, len(candidates)+len(s.instances))
	for id, unit := range candidates {
		full[id] = unit
	}
	for id, inst := range s.instances {
		if _, already := full[id]; already {
			continue
		}
		full[id] = &pluginapi.CandidateUnit{Manifest: inst.Manifest, IsCore: inst.Manifest.IsCore}
	}

	if err := resolve.ValidateVersions(full, s.hostVersion); err != nil {
		return err
	}
	order, err := resolve.Resolve(full)
	if err != nil {
		return err
	}
	s.metrics.observeLoadOrder(len(order))

	ordered := make([]*pluginapi.Instance, 0, len(order))
	for _, unit := range order {
		id := unit.Identifier()
		if unit.Manifest.DisabledByDefault {
			// Never enters the load order during setup (spec.md §8 boundary
			// behavior); other units may still depend on its presence in the
			// candidate graph without it ever being instantiated.
			continue
		}
		inst, exists := s.instances[id]
		if !exists {
			inst, err = s.construct(ctx, unit.Manifest)
			if err != nil {
				return fmt.Errorf("constructing %s: %w", id, err)
			}
			s.instances[id] = inst
			s.registrationOrder = append(s.registrationOrder, id)
		}
		ordered = append(ordered, inst)
	}

	s.loadOrder = make([]pluginapi.Identifier, len(ordered))
	for i, inst := range ordered {
		s.loadOrder[i] = inst.Manifest.Identifier()
	}

	for _, outcome := range s.engine.Setup(ctx, ordered) {
		s.logOutcome("setup", outcome)
	}
	for _, outcome := range s.engine.Start(ctx, ordered) {
		s.logOutcome("start", outcome)
	}

	// A unit that never got past Setup/Start is Disabled once the full pass
	// completes; it does not stay in the live map for dependents or queries
	// to observe (spec.md §8 scenario 6).
	for _, inst := range ordered {
		if inst.State().IsDisabled() {
			s.removeFromOrder(inst.Manifest.Identifier())
			delete(s.instances, inst.Manifest.Identifier())
		}
	}
	s.state = pluginapi.StateStart
	return nil
}

func (s *Service) construct(ctx context.Context, m *pluginapi.Manifest) (*pluginapi.Instance, error) {
	hooks, err := s.factory.New(ctx, m)
	if err != nil {
		return nil, oops.Code("PLUGIN_CONSTRUCT_FAILED").With("identifier", m.Identifier().String()).Wrap(err)
	}
	scoped := s.logger
	if scoped != nil {
		scoped = scoped.With("source", m.Identifier().String(), "correlation_id", ulid.Make().String())
	}
	return pluginapi.NewInstance(m, scoped, hooks), nil
}

func (s *Service) logOutcome(stage string, outcome lifecycle.Outcome) {
	if outcome.Err == nil {
		return
	}
	s.metrics.recordHookFailure(stage)
	if s.logger != nil {
		s.logger.Warn("lifecycle hook failed", "stage", stage, "plugin", outcome.Instance.Manifest.Identifier().String(), "error", outcome.Err)
	}
}

// Unload stops and removes a single instance. It refuses to unload an
// instance that a currently Enabled instance still hard-depends on
// (spec.md §9, cascade-on-unload decision: reject rather than cascade).
func (s *Service) Unload(ctx context.Context, id pluginapi.Identifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked("unload", pluginapi.StateStart); err != nil {
		return err
	}

	inst, ok := s.instances[id]
	if !ok {
		return oops.Code("PLUGIN_NOT_FOUND").With("identifier", id.String()).Errorf("no instance registered for %s", id)
	}

	for otherID, other := range s.instances {
		if otherID == id || !other.State().IsEnabled() {
			continue
		}
		if _, dependsOnTarget := other.Manifest.Dependencies[id]; dependsOnTarget {
			return oops.Code("PLUGIN_HAS_DEPENDENTS").
				With("identifier", id.String()).
				With("dependent", otherID.String()).
				Errorf("cannot unload %s: %s depends on it and is still enabled", id, otherID)
		}
	}

	for _, outcome := range s.engine.Stop(ctx, []*pluginapi.Instance{inst}) {
		s.logOutcome("stop", outcome)
	}
	delete(s.instances, id)
	s.removeFromOrder(id)
	return nil
}

func (s *Service) removeFromOrder(id pluginapi.Identifier) {
	s.loadOrder = removeID(s.loadOrder, id)
	s.registrationOrder = removeID(s.registrationOrder, id)
}

func removeID(ids []pluginapi.Identifier, target pluginapi.Identifier) []pluginapi.Identifier {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Load locates a single pending candidate by id, instantiates it, and runs a
// gated Setup+Start pass for it alone. Unlike LoadAll it never touches any
// other pending candidate. It reports false (with no error) if the
// candidate's hooks ran but it ended up Disabled. If an instance already
// exists for id, Load is idempotent: it reports whether that instance is
// Enabled without re-running anything.
func (s *Service) Load(ctx context.Context, id pluginapi.Identifier) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked("load", pluginapi.StateStart); err != nil {
		return false, err
	}

	if inst, exists := s.instances[id]; exists {
		return inst.State() == pluginapi.StateEnabled, nil
	}

	unit, ok := s.registry.Take(id)
	if !ok {
		return false, oops.Code("PLUGIN_NOT_FOUND").With("identifier", id.String()).Errorf("no candidate registered for %s", id)
	}

	single := map[pluginapi.Identifier]*pluginapi.CandidateUnit{id: unit}
	if err := resolve.ValidateVersions(single, s.hostVersion); err != nil {
		return false, err
	}

	if blocking, ready := s.dependenciesReadyLocked(unit.Manifest); !ready {
		return false, oops.Code("PLUGIN_INVALID_STATE").
			With("identifier", id.String()).
			With("dependency", blocking.String()).
			Errorf("cannot load %s: dependency %s has not reached state %s", id, blocking, pluginapi.StateEnabled)
	}

	inst, err := s.construct(ctx, unit.Manifest)
	if err != nil {
		return false, fmt.Errorf("constructing %s: %w", id, err)
	}
	s.instances[id] = inst
	s.registrationOrder = append(s.registrationOrder, id)
	s.loadOrder = append(s.loadOrder, id)

	for _, outcome := range s.engine.Setup(ctx, []*pluginapi.Instance{inst}) {
		s.logOutcome("setup", outcome)
	}
	for _, outcome := range s.engine.Start(ctx, []*pluginapi.Instance{inst}) {
		s.logOutcome("start", outcome)
	}

	if inst.State().IsDisabled() {
		s.removeFromOrder(id)
		delete(s.instances, id)
		return false, nil
	}
	return true, nil
}

// dependenciesReadyLocked reports whether every hard dependency of m is
// already a live, fully Enabled instance. Load runs Setup and Start for a
// single instance in one step, so unlike the bulk engine passes it requires
// Enabled up front rather than gating Setup on Setup and Start on Enabled
// separately.
func (s *Service) dependenciesReadyLocked(m *pluginapi.Manifest) (pluginapi.Identifier, bool) {
	for dep := range m.Dependencies {
		depInst, ok := s.instances[dep]
		if !ok || depInst.State() != pluginapi.StateEnabled {
			return dep, false
		}
	}
	return pluginapi.Identifier{}, true
}

// Reload unloads id and loads it again, returning true only if both steps
// succeed. It inherits Unload's cascade-on-unload rejection: it cannot
// unload a plugin something else still depends on.
func (s *Service) Reload(ctx context.Context, id pluginapi.Identifier) (bool, error) {
	manifest, err := s.manifestOf(id)
	if err != nil {
		return false, err
	}

	if err := s.Unload(ctx, id); err != nil {
		return false, err
	}

	if err := s.Register(&pluginapi.CandidateUnit{Manifest: manifest, IsCore: manifest.IsCore}); err != nil {
		return false, err
	}

	ok, err := s.Load(ctx, id)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Service) manifestOf(id pluginapi.Identifier) (*pluginapi.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		return nil, oops.Code("PLUGIN_NOT_FOUND").With("identifier", id.String()).Errorf("no instance registered for %s", id)
	}
	return inst.Manifest, nil
}

// HasPlugin reports whether id names a live instance whose manifest version
// satisfies rng. A zero rng is satisfied by any version.
func (s *Service) HasPlugin(id pluginapi.Identifier, rng pluginapi.VersionRange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		return false
	}
	return rng.Satisfies(inst.Manifest.Version)
}

// GetPlugin returns the live instance for id, or an error if none exists.
// Unlike Instance (spec's tryGetPlugin), a miss is reported as an error
// rather than a boolean.
func (s *Service) GetPlugin(id pluginapi.Identifier) (*pluginapi.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		return nil, oops.Code("PLUGIN_NOT_FOUND").With("identifier", id.String()).Errorf("no instance registered for %s", id)
	}
	return inst, nil
}

// GetPlugins returns every live instance, ordered by identifier for a
// deterministic result.
func (s *Service) GetPlugins() []*pluginapi.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*pluginapi.Instance, 0, len(s.instances))
	for _, inst := range s.instances {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Manifest.Identifier().String() < out[j].Manifest.Identifier().String()
	})
	return out
}

// Shutdown stops every instance in strict reverse-load order. Instances
// added by Load are appended to the cached load order, so they stop before
// the units LoadAll loaded; any live instance missing from the cached order
// falls back to reverse registration order (spec.md §9).
func (s *Service) Shutdown(ctx context.Context) []lifecycle.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.shutdownOrderLocked()
	ordered := make([]*pluginapi.Instance, 0, len(order))
	for _, id := range order {
		if inst, ok := s.instances[id]; ok {
			ordered = append(ordered, inst)
		}
	}

	outcomes := s.engine.Stop(ctx, ordered)
	for _, outcome := range outcomes {
		s.logOutcome("stop", outcome)
	}

	s.instances = make(map[pluginapi.Identifier]*pluginapi.Instance)
	s.loadOrder = nil
	s.registrationOrder = nil
	s.state = pluginapi.StateShutdown
	return outcomes
}

func (s *Service) shutdownOrderLocked() []pluginapi.Identifier {
	seen := make(map[pluginapi.Identifier]struct{}, len(s.instances))
	out := make([]pluginapi.Identifier, 0, len(s.instances))

	for i := len(s.loadOrder) - 1; i >= 0; i-- {
		id := s.loadOrder[i]
		if _, ok := s.instances[id]; !ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for i := len(s.registrationOrder) - 1; i >= 0; i-- {
		id := s.registrationOrder[i]
		if _, already := seen[id]; already {
			continue
		}
		if _, ok := s.instances[id]; !ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Instance returns the live instance for id, if any.
func (s *Service) Instance(id pluginapi.Identifier) (*pluginapi.Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	return inst, ok
}
