/*
Package registry provides the Roost, a tag-indexed directory of live sessions.

Entries live in an arena addressed by stable Handles. A tag map ("perches")
stores handles rather than sessions, so rebinding a tag never aliases mutable
state. Each entry carries a Cell holding transient state that the poll loop
takes, updates and puts back on every pass.

Entries are reference counted: membership in the arena holds one reference and
every perch holds another. Prune drops both kinds for dead entries, releasing
them once nothing else refers to them.
*/
package registry
