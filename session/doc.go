// Package session carries conversation state across graph runs within one
// process, the long-lived CLI case. A Store hands out cloned snapshots so
// callers can never mutate stored state in place, and rejects updates that
// would shrink the message history. Durable cross-restart persistence is
// deliberately out of scope.
package session
