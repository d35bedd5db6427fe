package fsutil

// File and directory permission constants.
const (
	FileModeDefault = 0o644 // -rw-r--r--: finished downloads
	FileModeSecure  = 0o640 // -rw-r-----: sidecar metadata, databases

	DirModeDefault = 0o755 // drwxr-xr-x: destination trees
	DirModeSecure  = 0o750 // drwxr-x---: cache and state directories

	// TempPattern is the os.CreateTemp pattern for in-flight downloads.
	TempPattern = "dl-*.tmp"
)
