// Package executor implements client-side GraphQL value completion against a
// statically known schema, for responses that arrive either whole or as a
// sequence of incremental patches.
//
// # Overview
//
// The executor takes a parsed query document, coerces its variables, collects
// the root selection set into a grouped field set, and recursively completes
// the raw response data against the declared output types: non-null wrappers,
// lists, leaves (scalar/enum), objects, and abstract types resolved through
// the __typename discriminator. Errors are accumulated as located errors
// (message + path) while sibling completion continues; null produced under a
// non-null type bubbles to the nearest nullable ancestor per the GraphQL
// specification.
//
// # Placeholders
//
// Unlike a server-side executor there is no resolver to call when data is
// absent: a field the current data does not provide completes to a
// Placeholder, a single-assignment cell registered by response path. When a
// later incremental chunk supplies the missing subtree, the caller re-invokes
// Execute over the merged raw data with the previous result tree; completion
// then resolves each placeholder exactly once and leaves already-completed
// positions in place, mutating the same maps callers already hold.
//
// # Completion passes
//
//	first chunk:  Execute(doc, vars, data, nil, registry)      -> tree with placeholders
//	later chunks: Execute(doc, vars, merged, previous, registry) -> same tree, fewer placeholders
//
// The registry reports positions still pending and fails them when the
// transport closes before the stream completes, so waiters are never
// stranded.
package executor
