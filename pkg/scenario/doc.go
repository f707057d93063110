// Package scenario runs ordered test steps against one browsing session.
//
// An Orchestrator opens a single session, runs steps in the order given and
// tears the session down once. Steps receive an explicit *StepContext
// carrying the session, a navigation.Checker, a logger and an outcome
// recorder.
//
// Steps name the preconditions they need. Each is checked at step start and
// re-established when missing, so a step does not silently depend on state
// a previous step happened to leave behind. A precondition that cannot be
// established fails the step with ErrPrecondition.
//
// A link check whose cleanup fails (navigation.ErrRestoration) leaves the
// session in an unknown state: the session is marked invalid and every
// remaining step is reported NotRun.
package scenario
