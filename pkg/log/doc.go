/*
Package log provides structured logging via zerolog: a global logger,
level/format configuration, and context-logger helpers that stamp a
recurring field (component, item ID, phase, node ID) onto every line a
caller emits afterward.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})
	log.Info("pipeline starting")

	workerLog := log.WithComponent("phase1").With().Str("host", hostname).Logger()
	itemLog := workerLog.With().Str("item_id", item.ItemID).Logger()
	itemLog.Info().Str("doc_kind", string(kind)).Msg("artifact written")

# Context loggers

WithComponent, WithPhase, WithItemID, and WithNodeID each return a child
zerolog.Logger with one field pre-set; callers chain .With() further when
more than one field is needed. This avoids repeating Str(...) calls at
every log site in a phase worker's per-item loop.

# Conventions

  - Errors are attached with .Err(err), never string-concatenated into Msg.
  - Debug is reserved for per-item tracing; Info covers claims, artifacts,
    escalations, and deliveries; Warn covers retried/recoverable failures;
    Error covers a FailureRecord being written.
  - Never log document contents, credentials, or raw envelope bodies —
    only identifiers and classifications.
*/
package log
