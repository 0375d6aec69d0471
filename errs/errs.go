// Package errs defines the error kinds used throughout the asset property
// graph, as sentinel values compared with errors.Is rather than typed
// exceptions.
package errs

import "errors"

// InvalidArgument signals a null required argument, or a reconcile target
// not owned by the graph it was invoked on.
var InvalidArgument = errors.New("invalid argument")

// PathUnreachable is non-fatal: resolve(...) could not walk a NodePath to
// completion. Callers drop the offending metadata entry and continue.
var PathUnreachable = errors.New("path unreachable")

// KindMismatch: a path expected one node kind (Member, Object,
// IndexedObject) but found another. Indicates document corruption.
// metadata.Apply logs it and skips the offending entry; it does not abort
// the rest of the load.
var KindMismatch = errors.New("node kind mismatch")

// CorruptedIdMap is best-effort: an identifiable collection/dictionary
// contains an Empty ItemId. The offending item is dropped during
// reconciliation.
var CorruptedIdMap = errors.New("corrupted id map")

// BaseLinkCollision is not surfaced as a failure in the normal sense — a
// dictionary add would collide with an existing key, so the id is
// recorded as deleted instead of inserted. The reconciler reports no
// error for it; no function in this module returns this sentinel.
var BaseLinkCollision = errors.New("base link collision")
