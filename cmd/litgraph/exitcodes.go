package main

// Exit codes shared by every command.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing repository, invalid paths)
	ExitDataError   = 3 // Data error (malformed input, unresolvable identifier)
	ExitInFlight    = 4 // Another task is already resolving the same input
)
