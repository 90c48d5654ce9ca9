// Package gate implements a one-shot readiness barrier.
//
// A Gate starts Unconfigured. Callers that Wait before it opens are queued
// and released in arrival order when Open is called. Callers that arrive
// while Open is still releasing the queue are appended behind it; the gate
// reports Configured only once the queue is empty. Open succeeds exactly
// once; the gate never closes again.
package gate
