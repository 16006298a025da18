package sched

import "errors"

var (
	ErrNoSuchTask    = errors.New("no such task")
	ErrDuplicateTask = errors.New("task already exists")
)
