// Package logging provides a structured logging wrapper around charmbracelet/log.
package logging

// Field name constants for structured logging.
const (
	FieldError      = "error"
	FieldPath       = "path"
	FieldInput      = "input"
	FieldOutput     = "output"
	FieldWorkingDir = "working_dir"
	FieldConfig     = "config"

	// Conversion fields.
	FieldFormat   = "format"
	FieldBackend  = "backend"
	FieldBackends = "backends"
	FieldTool     = "tool"
	FieldArgs     = "args"
	FieldElapsed  = "elapsed"
	FieldBlocks   = "blocks"
	FieldPages    = "pages"
	FieldBackup   = "backup"
	FieldChanged  = "changed"

	// Statistics fields.
	FieldFilesTotal     = "files_total"
	FieldFilesConverted = "files_converted"
	FieldFilesFailed    = "files_failed"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
	FieldRuntime = "runtime"
)
