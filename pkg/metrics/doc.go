// Package metrics registers the pipeline's Prometheus metrics (claims,
// completions, failures, escalations, external-model usage, delivery
// outcomes, and resource-monitor samples) and exposes them over HTTP
// alongside health/readiness/liveness handlers for the launcher and
// external scrapers.
package metrics
