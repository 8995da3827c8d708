package spec

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/msageha/mgapi/internal/model"
	"github.com/msageha/mgapi/internal/table"
)

var (
	componentPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	keyPattern       = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

	configEnvironments = []string{"dev", "staging", "prod", "test"}
	configActions      = []string{"set", "get", "delete"}
)

// ConfigSpec processes configuration record tables. Required columns:
// component, key, value, environment. The action column is optional and
// defaults to "set". Commands target the config_manager tool.
func ConfigSpec() Definition {
	required := []string{"component", "key", "value", "environment"}
	return Definition{
		Type:            "config_spec",
		RequiredColumns: required,
		Validate:        validateConfigRow(required),
		ToCommand:       configCommand,
	}
}

func validateConfigRow(required []string) func(table.Row) (bool, string) {
	return func(row table.Row) (bool, string) {
		for _, col := range required {
			if row.Get(col) == "" {
				return false, fmt.Sprintf("Missing required field: %s", col)
			}
		}

		env := strings.ToLower(row.Get("environment"))
		if !containsString(configEnvironments, env) {
			return false, fmt.Sprintf("Invalid environment: %s. Must be one of: %s",
				env, strings.Join(configEnvironments, ", "))
		}

		action := configAction(row)
		if !containsString(configActions, action) {
			return false, fmt.Sprintf("Invalid action: %s. Must be one of: %s",
				action, strings.Join(configActions, ", "))
		}

		if component := row.Get("component"); !componentPattern.MatchString(component) {
			return false, fmt.Sprintf("Invalid component name: %s. Use only letters, numbers, underscore, hyphen", component)
		}

		if key := row.Get("key"); !keyPattern.MatchString(key) {
			return false, fmt.Sprintf("Invalid key name: %s. Use only letters, numbers, underscore, dot", key)
		}

		return true, "Valid"
	}
}

func configCommand(row table.Row) (model.Command, error) {
	action := configAction(row)
	params := map[string]any{
		"component":   row.Get("component"),
		"environment": row.Get("environment"),
		"key":         row.Get("key"),
	}

	if action == "set" {
		params["value"] = parseConfigValue(row.Get("value"))
	}

	if desc := row.Get("description"); desc != "" {
		params["description"] = desc
	}
	if typ := row.Get("type"); typ != "" {
		params["type"] = typ
	}

	return model.Command{Tool: "config_manager", Action: action, Params: params}, nil
}

func configAction(row table.Row) string {
	action := strings.ToLower(row.Get("action"))
	if action == "" {
		return "set"
	}
	return action
}

// parseConfigValue keeps structured values structured: valid JSON passes
// through decoded, anything else stays a plain string.
func parseConfigValue(value string) any {
	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		return value
	}
	return parsed
}
