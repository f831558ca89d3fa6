// cmd/tools/registry-check/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"basket-optimizer/internal/common/validation"
	"basket-optimizer/pkg/registry"

	nb "basket-optimizer/internal/workers/basket/notify-basket"
	ob "basket-optimizer/internal/workers/basket/optimize-basket"
	rb "basket-optimizer/internal/workers/basket/record-basket"
)

// knownTaskTypes are the workers the worker manager can start.
var knownTaskTypes = []string{ob.TaskType, rb.TaskType, nb.TaskType}

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "configs/activity-registry.json", "Path to registry file")

	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	showPath := showCmd.String("path", "configs/activity-registry.json", "Path to registry file")
	showTask := showCmd.String("taskType", "", "Task type to print")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(*validatePath, os.Stdout); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "show":
		showCmd.Parse(os.Args[2:])
		if *showTask == "" {
			fmt.Println("Error: taskType is required for show.")
			showCmd.Usage()
			os.Exit(1)
		}
		if err := showActivity(*showPath, *showTask, os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

	default:
		help()
	}
}

// validateRegistry loads the registry, compiles every input schema and checks
// that implemented activities and worker task types agree in both directions.
func validateRegistry(path string, out io.Writer) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	for _, a := range reg.Activities {
		if a.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
		}
		if a.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", a.ID)
		}
	}

	// NewValidator also enforces the activity naming convention.
	if _, err := validation.NewValidator(reg); err != nil {
		return err
	}

	implemented := make(map[string]bool)
	for _, taskType := range reg.Implemented() {
		implemented[taskType] = true
	}
	known := make(map[string]bool, len(knownTaskTypes))
	for _, taskType := range knownTaskTypes {
		known[taskType] = true
		if !implemented[taskType] {
			return fmt.Errorf("worker %s has no implemented activity", taskType)
		}
	}
	var orphans []string
	for taskType := range implemented {
		if !known[taskType] {
			orphans = append(orphans, taskType)
		}
	}
	if len(orphans) > 0 {
		sort.Strings(orphans)
		return fmt.Errorf("activities marked implemented without a worker: %v", orphans)
	}

	fmt.Fprintf(out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func showActivity(path, taskType string, out io.Writer) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}
	activity, ok := reg.FindByTaskType(taskType)
	if !ok {
		return fmt.Errorf("no activity for task type %s", taskType)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(activity)
}

func help() {
	fmt.Println(`
Usage: registry-check <command> [flags]

Commands:
  validate  Validate the registry file against the registered workers
  show      Print one activity

Examples:
  registry-check validate -path configs/activity-registry.json
  registry-check show -taskType optimize-basket`)
}
