package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is the root of every "unknown id" error
var ErrNotFound = errors.New("not found")

// ErrRunNotFound is returned when a run doesn't exist
var ErrRunNotFound = fmt.Errorf("run %w", ErrNotFound)

// ErrAchievementNotFound is returned when an achievement doesn't exist
var ErrAchievementNotFound = fmt.Errorf("achievement %w", ErrNotFound)

// ErrNotificationNotFound is returned when a notification doesn't exist
var ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)

// ErrInvalidRun is returned when a run fails validation
var ErrInvalidRun = errors.New("invalid run data")

// ErrStorageRead marks a failure reading from a run or reward store
var ErrStorageRead = errors.New("storage read failure")

// ErrStorageWrite marks a failure writing to a run or reward store
var ErrStorageWrite = errors.New("storage write failure")

// ErrNoCredentials is returned when no remote credentials are stored
var ErrNoCredentials = errors.New("no credentials stored")
