// Package daemon combines the asset server and workflow event loop into a
// single lifecycle with flock-based locking to prevent multiple concurrent
// instances from sharing one output tree.
package daemon
