// Package control implements the event dispatch and deferred-execution core
// of the framework: the chain that takes a fresh sensor reading, fans it out
// to registered evaluators, and guarantees that any actuator command an
// evaluator schedules eventually executes at or after its due time, exactly
// once.
//
// The moving parts, leaf first:
//
//   - Comparison: the closed set of relational operators threshold
//     evaluators use.
//   - Routine: an immutable "write this value to this device no earlier
//     than this time" record, bound to a command and a log sink.
//   - Scheduler: the mutex-guarded collection of pending routines. Due
//     selection and removal happen in a single critical section, so a
//     routine can never run twice and a concurrent Push is never lost.
//   - Evaluator / Threshold: decision logic invoked once per event.
//   - Publisher: the per-input fan-out that invokes evaluators in
//     registration order and fronts a (possibly shared) Scheduler.
//
// Wall-clock time is an injected Clock throughout, so every due/attempt
// decision is deterministically testable without real sleeps.
//
// Thread-safety model:
//   - Scheduler.Push and Scheduler.AttemptRoutines are safe to call
//     concurrently from independent goroutines; the polling loop typically
//     owns Propagate while a tight timer loop owns AttemptRoutines.
//   - The scheduler mutex is never held across command execution, so a
//     stalled actuator cannot starve concurrent Push callers.
//   - Publisher.Subscribe is setup-time only; Propagate assumes the
//     evaluator list is no longer being mutated.
package control
