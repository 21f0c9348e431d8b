package api

import (
	"github.com/go-playground/validator/v10"

	"swiss-hub/internal/database"
)

var validate = validator.New()

// tableRules are validator tags applied to the columns present in a write.
var tableRules = map[string]map[string]interface{}{
	"users": {
		"external_ref": "required",
		"email":        "required,email",
		"name":         "required",
		"role":         "oneof=admin student",
	},
	"courses": {
		"title":    "required",
		"duration": "numeric",
		"level":    "oneof=beginner intermediate advanced",
	},
	"lessons": {
		"title":     "required",
		"order_num": "gte=1",
		"duration":  "numeric",
		"type":      "oneof=video reading quiz",
	},
	"enrollments": {
		"status":                "oneof=active completed dropped cancelled",
		"completion_percentage": "gte=0,lte=100",
	},
}

// validateRow returns per-column messages, or nil when the row passes.
func validateRow(t database.Table, row database.Row) map[string]string {
	rules := map[string]interface{}{}
	for col, rule := range tableRules[t.Name] {
		if _, ok := row[col]; ok {
			rules[col] = rule
		}
	}
	if len(rules) == 0 {
		return nil
	}
	failed := validate.ValidateMap(map[string]interface{}(row), rules)
	if len(failed) == 0 {
		return nil
	}
	details := make(map[string]string, len(failed))
	for col, err := range failed {
		if e, ok := err.(error); ok {
			details[col] = e.Error()
		}
	}
	return details
}
