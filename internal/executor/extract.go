package executor

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Extract pulls named values out of a JSON body using gjson paths
// (e.g. "user.id", "items.0.name"). Returns whatever was found plus a joined
// error for any missing paths.
func Extract(body []byte, rules map[string]string) (map[string]any, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid JSON in response body")
	}

	result := make(map[string]any, len(rules))
	var errs []error

	for name, path := range rules {
		value := gjson.GetBytes(body, path)
		if !value.Exists() {
			errs = append(errs, fmt.Errorf("path %q not found for field %q", path, name))
			continue
		}
		result[name] = value.Value()
	}

	if len(result) == 0 {
		result = nil
	}
	return result, errors.Join(errs...)
}
