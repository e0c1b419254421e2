// Package snapshot captures the persistent runtime state of a widget tree
// and reinjects it into a freshly built tree.
//
// A Snapshot maps (widget identity, attribute name) to a msgpack-encoded
// value. Only three kinds of attribute are captured:
//
//   - state variables declared persistent ("state.<name>"); locals never are
//   - current machine states ("machine.<name>")
//   - progress of animations that are in flight ("anim.<name>")
//
// Restore is lenient: a key whose widget is gone, whose variable was renamed
// or whose value no longer fits the new declaration is dropped and counted
// in the Report. Drift is an accepted loss, not an error.
package snapshot
