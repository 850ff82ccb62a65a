package history

import (
	"git.home.luguber.info/inful/buildpipe/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.FileSystemError("could not open history database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.FileSystemError("failed to initialize history schema").Build()

	// ErrRunNotFound indicates no run exists with the requested id.
	ErrRunNotFound = errors.ValidationError("run not found").Build()
)
