// internal/workers/listing/query-listings/config.go
package querylistings

import (
	"time"

	"listing-workers/internal/common/config"
	"listing-workers/pkg/registry"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	InputSchema   map[string]interface{}
}

// LoadConfig takes the worker settings from the application config and the
// input schema from the activity registry, falling back to
// DefaultInputSchema when the registry has no entry for TaskType. The
// registry timeout applies only when workers.query-listings is not configured.
func LoadConfig(appConfig *config.Config, reg *registry.ActivityRegistry) *Config {
	wc := config.GetWorkerConfig(appConfig, TaskType)

	cfg := &Config{
		Enabled:       wc.Enabled,
		MaxJobsActive: wc.MaxJobsActive,
		Timeout:       config.GetDuration(wc.Timeout),
		InputSchema:   DefaultInputSchema(),
	}

	activity, err := reg.FindActivity(TaskType)
	if err != nil {
		return cfg
	}
	if len(activity.InputSchema) > 0 {
		cfg.InputSchema = activity.InputSchema
	}
	if _, configured := appConfig.Workers[TaskType]; !configured {
		if d, ok := activity.TimeoutDuration(); ok {
			cfg.Timeout = d
		}
	}

	return cfg
}

func DefaultInputSchema() map[string]interface{} {
	scalar := []interface{}{"string", "number", "boolean"}
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"filters": map[string]interface{}{
				"type": []interface{}{"object", "null"},
				"additionalProperties": map[string]interface{}{
					"type":  []interface{}{"string", "number", "boolean", "array", "null"},
					"items": map[string]interface{}{"type": scalar},
				},
			},
			"sort":  map[string]interface{}{"type": []interface{}{"string", "null"}},
			"order": map[string]interface{}{"type": []interface{}{"string", "null"}},
		},
	}
}
