// cmd/tools/registry-check/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"listing-workers/pkg/registry"
)

func main() {
	path := flag.String("path", "configs/activity-registry.json", "Path to registry file")
	taskType := flag.String("taskType", "", "Validate -variables against this activity's input schema")
	variables := flag.String("variables", "", "JSON file with job variables")
	flag.Parse()

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		fmt.Printf("Error loading registry: %v\n", err)
		os.Exit(1)
	}

	if problems := checkRegistry(reg); len(problems) > 0 {
		fmt.Println("Registry check failed:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		os.Exit(1)
	}
	fmt.Printf("Registry check passed. Found %d activities.\n", len(reg.Activities))

	if *taskType == "" {
		return
	}
	if *variables == "" {
		fmt.Println("Error: -variables is required with -taskType")
		os.Exit(1)
	}

	data, err := os.ReadFile(*variables)
	if err != nil {
		fmt.Printf("Error reading variables: %v\n", err)
		os.Exit(1)
	}
	errs, err := checkVariables(reg, *taskType, string(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if len(errs) > 0 {
		fmt.Printf("Variables rejected by %s:\n  - %s\n", *taskType, strings.Join(errs, "\n  - "))
		os.Exit(1)
	}
	fmt.Printf("Variables accepted by %s.\n", *taskType)
}

// checkRegistry reports every activity with missing metadata, an unparsable
// timeout or a schema gojsonschema cannot compile.
func checkRegistry(reg *registry.ActivityRegistry) []string {
	var problems []string
	if len(reg.Activities) == 0 {
		return []string{"registry contains no activities"}
	}

	for _, a := range reg.Activities {
		if a.ID == "" {
			problems = append(problems, fmt.Sprintf("%s: missing id", a.TaskType))
		}
		if a.DisplayName == "" {
			problems = append(problems, fmt.Sprintf("%s: missing displayName", a.TaskType))
		}
		if a.Timeout != "" {
			if _, ok := a.TimeoutDuration(); !ok {
				problems = append(problems, fmt.Sprintf("%s: invalid timeout %q", a.TaskType, a.Timeout))
			}
		}
		for name, schema := range map[string]map[string]interface{}{"inputSchema": a.InputSchema, "outputSchema": a.OutputSchema} {
			if len(schema) == 0 {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %s does not compile: %v", a.TaskType, name, err))
			}
		}
	}
	return problems
}

func checkVariables(reg *registry.ActivityRegistry, taskType, variables string) ([]string, error) {
	activity, err := reg.FindActivity(taskType)
	if err != nil {
		return nil, err
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(activity.InputSchema), gojsonschema.NewStringLoader(variables))
	if err != nil {
		return nil, fmt.Errorf("validate variables: %w", err)
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return errs, nil
}
