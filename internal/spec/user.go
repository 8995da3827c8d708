package spec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/msageha/mgapi/internal/model"
	"github.com/msageha/mgapi/internal/table"
)

var (
	emailPattern    = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	userActions = []string{"create", "update", "delete"}
	userRoles   = []string{"admin", "user", "manager", "viewer"}

	// Optional columns carried into create/update params when present.
	userProfileFields = []string{"email", "role", "department", "full_name"}
)

// UserSpec processes user record tables. Required columns: username, email,
// role, action. Commands target the user_manager tool.
func UserSpec() Definition {
	required := []string{"username", "email", "role", "action"}
	return Definition{
		Type:            "user_spec",
		RequiredColumns: required,
		Validate:        validateUserRow(required),
		ToCommand:       userCommand,
	}
}

func validateUserRow(required []string) func(table.Row) (bool, string) {
	return func(row table.Row) (bool, string) {
		for _, col := range required {
			if row.Get(col) == "" {
				return false, fmt.Sprintf("Missing required field: %s", col)
			}
		}

		if email := row.Get("email"); !emailPattern.MatchString(email) {
			return false, fmt.Sprintf("Invalid email format: %s", email)
		}

		action := strings.ToLower(row.Get("action"))
		if !containsString(userActions, action) {
			return false, fmt.Sprintf("Invalid action: %s. Must be one of: %s",
				action, strings.Join(userActions, ", "))
		}

		role := strings.ToLower(row.Get("role"))
		if !containsString(userRoles, role) {
			return false, fmt.Sprintf("Invalid role: %s. Must be one of: %s",
				role, strings.Join(userRoles, ", "))
		}

		if username := row.Get("username"); !usernamePattern.MatchString(username) {
			return false, fmt.Sprintf("Invalid username format: %s. Use only letters, numbers, underscore, hyphen", username)
		}

		return true, "Valid"
	}
}

func userCommand(row table.Row) (model.Command, error) {
	action := strings.ToLower(row.Get("action"))
	params := map[string]any{
		"username": row.Get("username"),
	}

	switch action {
	case "create":
		for _, field := range userProfileFields {
			params[field] = row.Get(field)
		}
	case "update":
		// Only non-empty fields participate in an update.
		updates := make(map[string]any)
		for _, field := range userProfileFields {
			if v := row.Get(field); v != "" {
				updates[field] = v
			}
		}
		if len(updates) > 0 {
			params["updates"] = updates
		}
	case "delete":
		// Username alone identifies the user.
	}

	return model.Command{Tool: "user_manager", Action: action, Params: params}, nil
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
