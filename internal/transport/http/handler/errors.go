package handler

const (
	errInternalServer      = "Internal server error"
	errDocumentNotFound    = "Document not found"
	errDocumentConflict    = "Document with this name already exists"
	errInvalidReminderCron = "Reminder cron expression is invalid"
	errSessionNotFound     = "Session not found"
	errEmptySchedule       = "Schedule has no intervals"
	errBuildFailed         = "Every row failed to build"
)
