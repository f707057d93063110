package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/navcheck/pkg/navigation"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger handed to steps and the checker.
func WithLogger(logger navigation.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithCheckerOptions sets the wait and restore defaults for link checks.
func WithCheckerOptions(opts navigation.CheckerOptions) Option {
	return func(o *Orchestrator) {
		o.checkerOpts = opts
	}
}

// WithPreconditions registers named preconditions steps can require.
func WithPreconditions(preconditions ...Precondition) Option {
	return func(o *Orchestrator) {
		for _, p := range preconditions {
			o.preconditions[p.Name] = p
		}
	}
}

// Orchestrator owns one browsing session and runs steps on it in order.
// It is not meant for concurrent use: overlapping Run calls are rejected
// with ErrSessionBusy.
type Orchestrator struct {
	opener        Opener
	logger        navigation.Logger
	checkerOpts   navigation.CheckerOptions
	preconditions map[string]Precondition

	busy sync.Mutex

	mu       sync.Mutex
	session  Session
	checker  *navigation.Checker
	started  bool
	invalid  error
	teardown sync.Once
	closeErr error
}

// New creates an orchestrator that opens its session with opener.
func New(opener Opener, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		opener:        opener,
		logger:        nopLogger{},
		preconditions: make(map[string]Precondition),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start opens the session. It can only be called once.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		return errors.New("session already started")
	}

	session, err := o.opener(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	checkerOpts := o.checkerOpts
	if checkerOpts.Logger == nil {
		checkerOpts.Logger = o.logger
	}

	o.session = session
	o.checker = navigation.NewChecker(session, checkerOpts)
	o.started = true
	o.logger.Infof("session started")
	return nil
}

// Teardown closes the session. Only the first call has an effect.
func (o *Orchestrator) Teardown() error {
	o.teardown.Do(func() {
		o.mu.Lock()
		session := o.session
		o.mu.Unlock()

		if session == nil {
			return
		}
		if err := session.Quit(); err != nil {
			o.closeErr = fmt.Errorf("failed to close session: %w", err)
			o.logger.Errorf("%v", o.closeErr)
			return
		}
		o.logger.Infof("session closed")
	})
	return o.closeErr
}

// Invalid returns the error that invalidated the session, or nil.
func (o *Orchestrator) Invalid() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.invalid
}

// Run runs one step of the named scenario.
func (o *Orchestrator) Run(ctx context.Context, scenario string, step Step) StepResult {
	if !o.busy.TryLock() {
		return notRun(scenario, step, ErrSessionBusy)
	}
	defer o.busy.Unlock()

	return o.runStep(ctx, scenario, step)
}

// RunScenario runs the steps of sc in order. Failed steps do not stop the
// scenario; an invalid session does.
func (o *Orchestrator) RunScenario(ctx context.Context, sc Scenario) ScenarioResult {
	if !o.busy.TryLock() {
		return haltAll(sc, ErrSessionBusy)
	}
	defer o.busy.Unlock()

	return o.runScenario(ctx, sc)
}

// RunAll runs scenarios in order on the one session.
func (o *Orchestrator) RunAll(ctx context.Context, scenarios []Scenario) []ScenarioResult {
	results := make([]ScenarioResult, 0, len(scenarios))

	if !o.busy.TryLock() {
		for _, sc := range scenarios {
			results = append(results, haltAll(sc, ErrSessionBusy))
		}
		return results
	}
	defer o.busy.Unlock()

	for _, sc := range scenarios {
		results = append(results, o.runScenario(ctx, sc))
	}
	return results
}

func (o *Orchestrator) runScenario(ctx context.Context, sc Scenario) ScenarioResult {
	o.logger.Infof("scenario %q: %d steps", sc.Name, len(sc.Steps))

	result := ScenarioResult{
		Name:  sc.Name,
		Steps: make([]StepResult, 0, len(sc.Steps)),
	}
	for _, step := range sc.Steps {
		r := o.runStep(ctx, sc.Name, step)
		if r.State == NotRun {
			result.Halted = true
		}
		result.Steps = append(result.Steps, r)
	}
	return result
}

// ready reports why steps cannot run, or returns the session and checker.
func (o *Orchestrator) ready() (Session, *navigation.Checker, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case !o.started:
		return nil, nil, ErrSessionNotStarted
	case o.invalid != nil:
		return nil, nil, fmt.Errorf("%w: %v", ErrSessionInvalid, o.invalid)
	}
	return o.session, o.checker, nil
}

func (o *Orchestrator) invalidate(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.invalid == nil {
		o.invalid = err
	}
}

func (o *Orchestrator) runStep(ctx context.Context, scenario string, step Step) (result StepResult) {
	session, checker, err := o.ready()
	if err != nil {
		return notRun(scenario, step, err)
	}
	if err := ctx.Err(); err != nil {
		return notRun(scenario, step, err)
	}

	sc := &StepContext{
		Scenario: scenario,
		Step:     step.Name,
		Session:  session,
		Checker:  checker,
		Logger:   o.logger,
	}

	result = StepResult{
		Scenario: scenario,
		Step:     step.Name,
		State:    Running,
		Started:  time.Now(),
	}
	o.logger.Debugf("step %s: running", result.FullName())

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("step panicked: %v", r)
		}
		result.Duration = time.Since(result.Started)
		result.Outcomes = sc.Outcomes()
		o.finish(&result)
	}()

	if err := o.establish(ctx, sc, step.Requires); err != nil {
		result.Err = err
		return result
	}
	if step.Run != nil {
		result.Err = step.Run(ctx, sc)
	}
	return result
}

// establish checks each required precondition and re-establishes the ones
// that do not hold.
func (o *Orchestrator) establish(ctx context.Context, sc *StepContext, names []string) error {
	for _, name := range names {
		p, ok := o.preconditions[name]
		if !ok {
			return &PreconditionError{Name: name, Err: errors.New("not registered")}
		}

		holds, err := o.check(ctx, sc, p)
		if err != nil {
			return &PreconditionError{Name: name, Err: err}
		}
		if holds {
			continue
		}

		o.logger.Infof("step %s/%s: establishing %q", sc.Scenario, sc.Step, name)
		if p.Establish == nil {
			return &PreconditionError{Name: name, Err: errors.New("cannot be established")}
		}
		if err := p.Establish(ctx, sc); err != nil {
			return &PreconditionError{Name: name, Err: err}
		}

		holds, err = o.check(ctx, sc, p)
		if err != nil {
			return &PreconditionError{Name: name, Err: err}
		}
		if !holds {
			return &PreconditionError{Name: name, Err: errors.New("still missing after establishing")}
		}
	}
	return nil
}

func (o *Orchestrator) check(ctx context.Context, sc *StepContext, p Precondition) (bool, error) {
	if p.Check == nil {
		return false, nil
	}
	return p.Check(ctx, sc)
}

func (o *Orchestrator) finish(result *StepResult) {
	name := result.FullName()
	switch {
	case result.Err == nil:
		result.State = Passed
		o.logger.Infof("step %s: passed (%s)", name, result.Duration.Round(time.Millisecond))
	case isRestorationFailure(result.Err):
		result.State = Failed
		result.Reason = "restoration failed; session invalidated"
		o.invalidate(result.Err)
		o.logger.Errorf("step %s: %v; remaining steps will not run", name, result.Err)
	default:
		result.State = Failed
		o.logger.Warnf("step %s: failed: %v", name, result.Err)
	}
}

func notRun(scenario string, step Step, err error) StepResult {
	return StepResult{
		Scenario: scenario,
		Step:     step.Name,
		State:    NotRun,
		Err:      err,
		Reason:   err.Error(),
	}
}

func haltAll(sc Scenario, err error) ScenarioResult {
	result := ScenarioResult{Name: sc.Name, Halted: true}
	for _, step := range sc.Steps {
		result.Steps = append(result.Steps, notRun(sc.Name, step, err))
	}
	return result
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
