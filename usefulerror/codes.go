package usefulerror

// Standard error codes reused across the project. Human friendly rather
// than posix-aligned. Keep this minimal; reuse before adding new ones.
const (
	ErrCodeInvalidArgument  = "InvalidArgument"
	ErrCodePermissionDenied = "PermissionDenied"
	ErrCodeConflict         = "Conflict"
	ErrCodeNotFound         = "NotFound"
	ErrCodeSpawnFailed      = "SpawnFailed"
	ErrCodeUnsupported      = "Unsupported"
	ErrCodeUnknown          = "Unknown"
)
