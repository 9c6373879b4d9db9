/*
Package extclients implements bearer-token HTTP clients for the pipeline's
external collaborators: the OCR engine, the local-inference endpoints used
by Phase 2's escalation ladder, the external large-model API used by Phase
3, and the delivery service used by Phase 5. Every client follows the same
shape as pkg/health's HTTPChecker — a *http.Client with a fixed timeout,
context-aware requests, and status-range interpretation — generalized here
to carry a request body and decode a typed response.
*/
package extclients
