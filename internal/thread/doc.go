// Package thread loads, deletes, and renames conversation threads in a chat UI
// whose thread list lives behind nested shadow roots.
//
// The flow for every request is the same:
//
//	Manager (dispatch) -> Expand (locator) -> settle -> Search -> executor -> Completion
//
// Every request produces exactly one Result, delivered once through a
// Completion, whatever branch it takes: success, not found, unrecognized
// action, traversal failure, cancellation, or a panic inside the page layer.
// Result.Wire flattens the outcome to the single-string contract that legacy
// drivers expect ("<identifier>", "null", or "Error: ...").
//
// Requests are serialized inside a Manager. The page is never touched by two
// requests at once, and handles are re-enumerated after every settle wait.
package thread
