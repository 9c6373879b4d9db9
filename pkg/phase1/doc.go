/*
Package phase1 implements the layout/OCR and rule-classification worker:
the first stop for every work item. It OCRs attachments, concatenates
their text with the envelope body, classifies the result against a
precedence-ordered rule table, extracts the 31-field contract, emits a
structured-document payload for accounting kinds, and writes the item's
Artifact.

Items that fail classification or whose extracted text is too short to
trust are appended to the Phase 1 failure stream instead, which becomes
Phase 2's input.
*/
package phase1
