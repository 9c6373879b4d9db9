/*
Package resource implements the Resource Monitor: a ticker-driven sampler
of CPU, RAM, GPU, and disk utilization that derives an advisory throttle
signal and a recommended worker-instance count, and broadcasts both over
the shared pkg/events broker so Phase workers and the launcher react to
the same snapshot without a direct dependency on this package's sampling
internals.

Throttling is advisory only: a raised signal stops new items from being
picked up at the next checkpoint, it never interrupts work already in
flight.
*/
package resource
