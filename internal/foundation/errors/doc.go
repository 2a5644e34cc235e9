// Package errors provides the classified error primitives used across usemin.
//
// Every failure the engine raises is a ClassifiedError carrying a category,
// a severity, a message and structured context. The three engine-level kinds
// are:
//   - CategoryResolution: a reference pattern matched no file
//   - CategoryConfig: incompatible media queries, stream input, bad options
//   - CategoryStage: a transform stage failed (message is stage-defined)
//
// Example usage:
//
//	err := errors.ResolutionError("Path " + p + " not found!").
//		WithContext("path", p).
//		Build()
package errors
