/*
Package extract implements the Field Extractor: a pure function from raw
text + DocumentKind to the 31-field contract (pkg/types.FieldNames). It
holds no state and performs no I/O.

The exact regex/keyword tables used for field extraction are left
unspecified by design; this package implements a representative,
best-effort extraction using the standard library's regexp package. No
third-party information-extraction library fits this fleet's dependency
stack, so stdlib regexp is the considered choice here, not a shortcut.

Extraction is organized as a per-kind lookup rather than a runtime type
switch, falling back to a common extractor for fields that apply
regardless of kind (sender/recipient contact fields, topic).
*/
package extract
