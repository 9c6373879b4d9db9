/*
Package rules holds the precedence-ordered kind-classification table, the
DocumentKind-to-tag-vocabulary mapping, and the default notification
sender patterns.

Rule precedence is modeled the way this fleet's ingress router matches
host/path rules: an ordered slice tried front-to-back, first match wins.
system_notification is special-cased ahead of the table entirely: it
takes precedence over all others whenever the sender matches a
notification pattern, regardless of message content.

The exact keyword/regex tables are operational data, not part of this
package's contract; DefaultRules is a representative, non-exhaustive seed
table illustrating the required precedence (specific kinds like
parking_ticket or car_wash ahead of generic receipt/invoice matches).
Deployments that need a different table load one via rules.NewTable with
their own Rule slice.
*/
package rules
