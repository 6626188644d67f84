package storage

import "errors"

var (
	ErrRuleSetNotFound = errors.New("ruleset not found")
	ErrInvalidData     = errors.New("invalid data")
	ErrStorageInit     = errors.New("storage initialization failed")
	ErrFileOperation   = errors.New("file operation failed")
)
