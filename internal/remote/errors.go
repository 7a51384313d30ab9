package remote

import (
	"errors"
	"fmt"
	"strings"
)

// RemoteError reports a remote command that exited with a non-zero status.
type RemoteError struct {
	Command    string
	ExitStatus int
	Stderr     string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	return fmt.Sprintf("remote command exited with status %d", e.ExitStatus)
}

// IsNotFound returns true if the remote path does not exist.
func (e *RemoteError) IsNotFound() bool {
	return strings.Contains(strings.ToLower(e.Stderr), "no such file or directory")
}

// IsPermissionDenied returns true if the remote user may not access the path.
func (e *RemoteError) IsPermissionDenied() bool {
	return strings.Contains(strings.ToLower(e.Stderr), "permission denied")
}

// IsDirectory returns true if a file operation hit a directory.
func (e *RemoteError) IsDirectory() bool {
	return strings.Contains(strings.ToLower(e.Stderr), "is a directory")
}

// IsRemoteError checks if an error is a RemoteError and returns it.
func IsRemoteError(err error) (*RemoteError, bool) {
	var remoteErr *RemoteError
	ok := errors.As(err, &remoteErr)
	return remoteErr, ok
}
