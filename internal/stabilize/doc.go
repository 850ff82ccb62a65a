// Package stabilize waits for the workspace to settle between the build and
// make stages of a pipeline run.
//
// The external tool releases file handles asynchronously after it exits. The
// default Fixed waiter sleeps for a constant delay. Locks polls until no lock
// file matches under the watched paths, and Quiet waits for a window without
// filesystem events. Both bounded waiters fail with a *TimeoutError.
package stabilize
