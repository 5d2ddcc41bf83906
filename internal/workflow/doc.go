// Package workflow wires scanners, the classifier, the config merger, a
// secret backend and sync targets into the operations the CLI exposes:
// scan, push, pull and sync. Bulk operations report per-item results; a
// failing item never aborts the rest.
package workflow
