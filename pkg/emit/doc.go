/*
Package emit implements the Structured-Document Emitter: a pure function
from extracted fields + DocumentKind to a normalized XML payload,
produced only for accounting kinds (invoice, receipt, tax_document,
bank_statement).

The target ISDOC schema is out of scope; this package emits a
representative envelope carrying the 31-field contract under stable
element names, sufficient for a downstream system that expects one XML
document per accounting item without committing to ISDOC's full
structure. No third-party XML library appears anywhere in this fleet's
dependency stack, so the standard library's encoding/xml is used
directly.
*/
package emit
