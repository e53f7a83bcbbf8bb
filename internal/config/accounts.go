package config

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"botfleet/internal/core"
)

// LoadAccounts loads an account roster from a CSV or JSON file. CSV files
// need a header row with a "name" column; every other column becomes a field
// of the opaque credential blob. JSON files are an array of objects with
// "name" and optional "credential".
func LoadAccounts(path string) ([]core.AccountSpec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var specs []core.AccountSpec
	var err error

	switch ext {
	case ".csv":
		specs, err = loadAccountsCSV(path)
	case ".json":
		specs, err = loadAccountsJSON(path)
	default:
		return nil, fmt.Errorf("unsupported roster format %q (use .csv or .json)", ext)
	}

	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("account roster %s is empty", path)
	}
	return specs, nil
}

func loadAccountsCSV(path string) ([]core.AccountSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV must have header row and at least one data row")
	}

	headers := records[0]
	nameIdx := -1
	for i, h := range headers {
		if h == "name" {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("CSV header must include a %q column", "name")
	}

	specs := make([]core.AccountSpec, 0, len(records)-1)
	for _, record := range records[1:] {
		credential := make(map[string]string, len(headers)-1)
		var name string
		for i, h := range headers {
			if i >= len(record) {
				continue
			}
			if i == nameIdx {
				name = record[i]
				continue
			}
			credential[h] = record[i]
		}

		spec := core.AccountSpec{Name: name}
		if len(credential) > 0 {
			raw, err := json.Marshal(credential)
			if err != nil {
				return nil, err
			}
			spec.Credential = raw
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func loadAccountsJSON(path string) ([]core.AccountSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var specs []core.AccountSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("JSON must be an array of account objects: %w", err)
	}
	return specs, nil
}
