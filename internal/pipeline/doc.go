// Package pipeline runs the perceive-then-publish watch cycle.
//
// A [Sensor] gathers weather, incidents and transit updates into a
// domain.DataPackage, a [Publisher] hands the package to the record store,
// and a [Runner] composes the two once per call. Each stage contains its own
// failures: failed fetches become error markers inside the package, store
// failures become a [Result] with StatusFailure, and panics in either stage
// are recovered at the stage boundary.
//
// Nothing here loops or retries. Scheduling belongs to whoever invokes
// [Runner.RunCycle] (cron, the CLI, or POST /api/cycles).
package pipeline
