// Package launcher starts and supervises the worker instances assigned to
// a machine for one phase, and reports their aggregate status.
//
// There is no coordinator process: every instance discovers the work
// store on a shared filesystem and claims items through its exclusive-
// create lock protocol. The launcher's job is narrower than a scheduler —
// it knows the index range a machine has been configured to own for a
// phase, splits that range evenly across the machine's configured
// instance count, runs one worker loop per slice, and watches those
// loops for liveness the way a process supervisor would.
package launcher
