// Package extension provides the run-time registries that let conproc move
// user code between isolated execution contexts: handlers are registered
// under stable names so that a process environment can be encoded, shipped
// into a fresh context and decoded back to the same functions.
//
// The registries are normally modified through the public APIs under the
// root conproc package, therefore most applications do not need to import
// this package directly.
package extension
