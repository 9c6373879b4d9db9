/*
Package delivery implements Phase 5: pushing every resolved Artifact to
the document-management service and keeping the correspondent directory
reconciled.

Processing is idempotent by construction — content-hash lookup before
upload, normalized-key lookup before correspondent creation, name lookup
before tag creation — so re-running delivery over the same Artifact set
never produces duplicates. DeliverAll handles one Artifact at a time, in
order; items are not delivered in parallel.
*/
package delivery
