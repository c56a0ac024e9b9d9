/*
Package history provides the bounded step store used by the navigation engine.

The store is "lossy": rather than rejecting writes or growing without bound, it
discards the older half of its contents whenever a push would leave it full. This
keeps pushes amortized O(1) while trading away history depth, which is acceptable
for a navigation trail where only recent entries are ever revisited.
*/
package history
