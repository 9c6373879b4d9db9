/*
Package secrets stores the pipeline's external-service API tokens (OCR
engine, local-inference endpoints, external large-model API, delivery
service) encrypted at rest, so the configuration file itself can
reference tokens by name rather than embed them in plaintext YAML.

Encryption is AES-256-GCM with a key derived from an operator-supplied
passphrase (or, in cluster deployments, a shared passphrase distributed
out of band), so a credential never touches disk in plaintext.
*/
package secrets
