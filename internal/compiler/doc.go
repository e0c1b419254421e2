// Package compiler turns one declarative UI source file into an
// artifact.Artifact and caches the last successful artifact per path.
//
// # Cache semantics
//
//   - A compile whose source hash equals the cached hash returns the cached
//     artifact without calling the parser.
//   - A failed compile never touches the cache: the previous artifact stays
//     authoritative, so a syntax error while editing does not collapse the
//     running UI.
//   - The cache belongs to one Compiler value. There is no package-level
//     state, so independent pipelines (and tests) never share entries.
package compiler
