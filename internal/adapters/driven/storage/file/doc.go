// Package file provides a JSON status file implementation of the cursor
// store ports.
//
// Each container has one status file at <status_dir>/<account>/<container>
// holding the cursors of every crawler container id that reported progress:
//
//	{"<container id>": {"last_row": 42, "index": "objects"}}
//
// Files are hand-editable. A missing, truncated or otherwise unreadable file
// reads as no progress. Writers replace the file atomically under an
// exclusive flock on a sidecar lock file; readers take a shared lock.
package file
