// Package engine runs the reload pipeline and owns the authoritative live
// widget tree.
//
// One reload cycle, for a batch of changed paths:
//
//  1. publish Rebuild
//  2. compile every changed file; a failure publishes Error and keeps the
//     file's previous artifact
//  3. build the new tree from all current artifacts
//  4. capture runtime state of the live tree and publish SaveState
//  5. restore that state into the new tree and publish RestoreState
//  6. diff live against restored, publish Update, and make restored live
//
// Cycles are serialized by one mutex, which also guards runtime mutations
// (SetState, SetAnimationProgress, Fire). A cycle that is running when the
// next batch arrives completes; the next batch then starts from its result.
package engine
