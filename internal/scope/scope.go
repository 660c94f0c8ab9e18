// Package scope provides the naming conventions for storage scopes and a
// minimal glob matcher for scope queries.
//
// A scope is a colon-separated identifier, conventionally
// {machine}:{owner/repo}:{category}:{id...}, for example
// "laptop:BANCS-Norway/session-coordinator:session:claude_1". Segments are
// opaque to the storage layer; only filtering inspects them, and then only
// through glob patterns.
package scope

import "strings"

// Separator joins scope segments.
const Separator = ":"

// Join composes a scope identifier from its segments.
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Prefix returns the machine:project prefix that namespaces all of a
// session's scopes.
func Prefix(machine, project string) string {
	return machine + Separator + project
}

// Qualify prepends the session prefix to a caller-supplied logical scope.
func Qualify(prefix, logical string) string {
	return prefix + Separator + logical
}

// Strip removes the session prefix from a fully qualified scope. Scopes
// outside the prefix are returned unchanged.
func Strip(prefix, full string) string {
	return strings.TrimPrefix(full, prefix+Separator)
}
