// Package param provides the value model shared by every other layer of
// lawstack.
//
// This package contains type definitions and small helpers only. All other
// internal packages import param; param imports nothing internal. This keeps
// the value model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Values are numeric or boolean, scalar or flat vector - no strings,
//     no nulls, no nesting beyond one vector level
//   - Integer literals are acceptable wherever a real is declared; the
//     reverse is never true
//   - Year series are sparse and forward-filled: a value holds until the
//     next explicitly specified year
package param
