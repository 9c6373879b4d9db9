/*
Package correspondent implements the Correspondent Normalizer and Merger:
the pure normalization pipeline that turns a raw sender string into a
canonical key, a small known-mappings table for human-friendly display
names, a bbolt-backed directory of canonical Correspondent records, and
an offline Merger that collapses correspondents sharing a normalized key
down to one primary.

Normalization is deterministic and order-sensitive: lowercase, strip
surrounding whitespace, keep the name from a "Display <addr>" shape
(the address when no name precedes it), drop trailing legal-form and service tokens, strip the domain
suffix, then Unicode-NFKD-decompose and drop non-letter/digit runs before
collapsing whitespace. Two senders collide as the same correspondent iff
they produce the same key.
*/
package correspondent
