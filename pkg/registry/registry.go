// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrActivityNotFound = errors.New("activity not found")

// LoadRegistry reads an activity registry file. Entries without a task type
// and task types registered twice are rejected.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(reg.Activities))
	for i, a := range reg.Activities {
		if a.TaskType == "" {
			return nil, fmt.Errorf("registry %s: activity %d has no taskType", path, i)
		}
		if _, dup := seen[a.TaskType]; dup {
			return nil, fmt.Errorf("registry %s: duplicate taskType %q", path, a.TaskType)
		}
		seen[a.TaskType] = struct{}{}
	}
	return &reg, nil
}

// FindActivity returns the activity registered for taskType.
func (r *ActivityRegistry) FindActivity(taskType string) (*Activity, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrActivityNotFound, taskType)
	}
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrActivityNotFound, taskType)
}
