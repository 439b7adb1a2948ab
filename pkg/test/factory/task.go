package factory

import (
	"time"

	fab "github.com/Goldziher/fabricator"
	"github.com/google/uuid"
)

// NewTask builds a task with a fresh id, an incomplete state and matching
// timestamps. customData overrides any of those.
func NewTask[T any](customData ...map[string]any) T {
	instance := fab.New(*new(T))
	now := time.Now().UTC()

	defaults := map[string]any{
		"ID":          uuid.NewString(),
		"Description": "",
		"Completed":   false,
		"CreatedAt":   now,
		"UpdatedAt":   now,
	}

	return instance.Build(merge(defaults, customData...))
}

// merge folds every map into one, later keys winning. fabricator's Build
// only reads its first override map.
func merge(defaults map[string]any, customData ...map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults))

	for key, value := range defaults {
		merged[key] = value
	}

	for _, data := range customData {
		for key, value := range data {
			merged[key] = value
		}
	}

	return merged
}
