// Package scene holds the live scene graph and is the only component that
// mutates it.
//
// An Adapter replays differ edits onto its scene nodes in order and forwards
// each one to a backend.Backend as a single primitive: Added creates,
// Updated pushes properties, Removed destroys the subtree children first,
// Reordered reindexes a parent's child list locally. A failing edit is
// reported as an *ApplyError and the rest of the batch is still applied.
// After a batch the frame is marked dirty and a frame is requested; the
// adapter never waits for rendering.
//
// An Applier connects an Adapter to the update bus. It applies every Update
// message, and after a lag or a failed batch it resynchronizes by diffing the
// scene against the full tree carried by the next Update.
package scene
