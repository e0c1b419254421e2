// Package bus is the update channel between the reload pipeline and its
// listeners.
//
// The bus is a bounded append-only log. Publish appends and never blocks;
// each Subscription keeps its own cursor into the log. When a subscriber
// falls more than the log capacity behind, its next read reports a
// *LaggedError with the number of messages it missed and resumes at the
// oldest retained message. A slow or absent subscriber therefore costs the
// producer nothing.
package bus
