// Package resource bounds the work celldb does on behalf of one process:
// concurrent projection workers, memory held by dense matrices, and the byte
// rate of table persist/load streams.
//
// A nil *Controller is valid and imposes no limits.
package resource
