package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Reading is the "currently reading" block shown on the home page.
type Reading struct {
	CurrentProject map[string]any   `json:"current_project"`
	Collections    []map[string]any `json:"collections"`
}

// Project is a manually curated entry on the home page.
type Project struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	URL         string `yaml:"url"`
}

// DefaultReading is returned whenever reading.json cannot be used.
func DefaultReading() Reading {
	return Reading{CurrentProject: nil, Collections: []map[string]any{}}
}

// LoadReading never fails: a missing, unreadable or malformed file yields DefaultReading.
func LoadReading(path string) Reading {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultReading()
	}
	var reading Reading
	if err := json.Unmarshal(data, &reading); err != nil {
		return DefaultReading()
	}
	if reading.Collections == nil {
		reading.Collections = []map[string]any{}
	}
	return reading
}

// LoadProjects reads the curated project list. A missing file is not an error.
func LoadProjects(path string) ([]Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Project{}, nil
		}
		return nil, fmt.Errorf("read projects: %w", err)
	}
	var doc struct {
		Projects []Project `yaml:"projects"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse projects: %w", err)
	}
	if doc.Projects == nil {
		return []Project{}, nil
	}
	return doc.Projects, nil
}
