// Package ir provides the shared data model for the Post system emulator.
//
// This package contains plain value types only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Characters are runes; a "character" in an alphabet is one rune
//   - Rule order is declaration order and is never re-sorted
//   - Trace records are ordered by a logical seq, never wall-clock time
//   - All JSON tags use snake_case
package ir
