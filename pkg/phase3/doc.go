/*
Package phase3 implements the external large-model worker: the last
automated attempt before an item falls to manual review. It consumes the
Phase 2 failure stream, calls a rate-limited external large-model
endpoint with bounded exponential-backoff retry, and tracks a per-day
spend ceiling in a small embedded database so a runaway day of escalations
cannot exceed the configured budget.

Items held back by the ceiling are appended to a deferred queue rather
than failed outright; a new day's budget replays the queue before
accepting fresh Phase 2 failures.
*/
package phase3
