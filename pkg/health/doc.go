/*
Package health provides reachability checks for the pipeline's external
collaborators: the OCR engine, local-inference endpoints, the external
large-model API, and the delivery service.

A Checker implements Check(ctx) Result and Type(). HTTPChecker issues a
GET against a configurable URL and accepts a status range; TCPChecker
dials an address and reports whether the connection succeeds. Status
applies hysteresis (Config.Retries consecutive failures before flipping
Healthy to false) so a single dropped request doesn't flap a worker's
readiness.

The `monitor` subcommand builds one HTTPChecker per configured external
endpoint and runs each Check once. No long-running process polls the
checkers or feeds their results into the /health aggregate in
pkg/metrics.
*/
package health
