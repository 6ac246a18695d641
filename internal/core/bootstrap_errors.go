package core

import "fmt"

// SubdirNotFoundError is the fatal error raised when a repo URL names a
// subdirectory (e.g. a GitHub "/tree/{ref}/{subdir}" URL) that does not
// exist in the extracted tree (spec §7 SubdirNotFound).
type SubdirNotFoundError struct {
	Subdir string
	Repo   string
}

func (e *SubdirNotFoundError) Error() string {
	return fmt.Sprintf("Error: Subdirectory '%s' not found\n  Context: %s was imported but no such path exists in its tree\n  Fix: Check the URL's subdirectory segment against the repository's default branch", e.Subdir, e.Repo)
}

// InvalidURLError and ArchiveFetchFailedError are not redeclared here: the
// coordinator returns identity.InvalidURLError and fetch.ArchiveFetchFailedError
// directly, matching spec §7's "InvalidUrl"/"ArchiveFetchFailed" kinds.
