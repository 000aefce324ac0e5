package orchestrator

import "errors"

var (
	ErrRollbackNotAllowed = errors.New("upgrade request is not in a failed status")
	ErrExecutionAborted   = errors.New("execution aborted before the job ran")
)
