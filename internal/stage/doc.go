// Package stage invokes the external build tool for one pipeline stage.
//
// Each invocation is a structured argv:
//
//	<tool> --project <project> --build "platform=…;configPath=…;stage=build;force=true;…"
//
// The tool's stdout and stderr are forwarded to the caller's writers as they
// are produced. Success is decided by an ExitPolicy rather than the OS
// convention: the tool reports success-with-warnings as exit code 36, so the
// default accepted set is {0, 36}. The runner never retries.
package stage
