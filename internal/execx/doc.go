// Package execx is the structured subprocess seam for the pipeline.
//
// Every external interaction (compiler, framework builder, packaging tool,
// signing tool) goes through Runner with an explicit argument list. The
// production runner blocks on the subprocess; the Fake records invocations
// so packaging decisions stay testable without executing real tools.
package execx
