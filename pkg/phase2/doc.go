/*
Package phase2 implements the hierarchical local-inference escalation
ladder: small model, then medium for confirmation, then large as a final
local attempt before an item is handed to the external large-model phase.

The ladder consumes Phase 1's failure stream. Each record's retained text
snippet is the prompt input; there is no attachment re-OCR at this stage.
A small/medium agreement on DocumentKind ends the ladder early with the
small model's fields; disagreement, a medium timeout, or an unparsed small
verdict escalates to the large model. The large model's own failure to
parse or respond ends the item at FAILED, appended to the Phase 3 input.
*/
package phase2
