package domain

import (
	"fmt"
	"strings"
)

const (
	RunsURIScheme   = "runs:/"
	ModelsURIScheme = "models:/"
)

// RunsURI locates a model through a run's artifact path.
func RunsURI(runID, artifactPath string) string {
	return fmt.Sprintf("%s%s/%s", RunsURIScheme, runID, strings.TrimPrefix(artifactPath, "/"))
}

// ModelsURI locates a model through the registry.
func ModelsURI(name, version string) string {
	return fmt.Sprintf("%s%s/%s", ModelsURIScheme, name, version)
}

// ParseRunsURI splits runs:/<run_id>/<path>. ok is false for other schemes.
func ParseRunsURI(uri string) (runID, artifactPath string, ok bool) {
	rest, found := strings.CutPrefix(uri, RunsURIScheme)
	if !found {
		return "", "", false
	}
	runID, artifactPath, _ = strings.Cut(rest, "/")
	if runID == "" {
		return "", "", false
	}
	return runID, artifactPath, true
}

// ParseTags reads "k1=v1,k2=v2" into a map. Keys and values are trimmed.
func ParseTags(s string) (map[string]string, error) {
	tags := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return tags, nil
	}
	for _, pair := range strings.Split(s, ",") {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("%q: %w", pair, ErrInvalidTag)
		}
		tags[key] = strings.TrimSpace(value)
	}
	return tags, nil
}
