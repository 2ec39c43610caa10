package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEntryID is the standardized structured logging key for queue entry identifiers.
	FieldEntryID = "entry_id"
	// FieldBatchID is the standardized structured logging key for batch correlation identifiers.
	FieldBatchID = "batch_id"
	// FieldSource is the standardized structured logging key for metadata source names.
	FieldSource = "source"
	// FieldEventType is the standardized structured logging key for machine-readable event tags.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
	// FieldPath is the standardized structured logging key for filesystem paths.
	FieldPath = "path"
	// FieldStatus is the standardized structured logging key for queue statuses.
	FieldStatus = "status"
)
