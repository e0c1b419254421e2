// internal/nodeid/doc.go

/*
Package nodeid provides a structured representation for widget identities,
based on the canonical format `path`.

The format is a dot-separated sequence of segments, e.g.
`root.main.Container[0].counter`. A segment with an index is positional
(`Type[n]`, the n-th sibling of that type); a segment without one is a
declared key. Identities are assigned from declaration position or name,
never from memory addresses, so the same logical widget keeps its identity
across recompilations.
*/
package nodeid
