// Package templates downloads Camunda connector element templates and merges them into one JSON array.
package templates

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSources are the connector templates fetched when no sources file is configured
var DefaultSources = []string{
	"https://raw.githubusercontent.com/camunda/connectors/main/connectors/http/rest/element-templates/http-json-connector.json",
	"https://raw.githubusercontent.com/camunda/connectors/main/connectors/slack/element-templates/slack-outbound-connector.json",
	"https://raw.githubusercontent.com/camunda/connectors/main/connectors/sendgrid/element-templates/sendgrid-outbound-connector.json",
	"https://raw.githubusercontent.com/camunda/connectors/main/connectors/aws/aws-lambda/element-templates/aws-lambda-outbound-connector.json",
}

type sourcesFile struct {
	Sources []string `yaml:"sources"`
}

// LoadSources returns the URLs listed under "sources:" in the YAML file at path,
// in file order. An empty path yields a copy of DefaultSources.
func LoadSources(path string) ([]string, error) {
	if path == "" {
		return append([]string(nil), DefaultSources...), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s lists no sources", path)
	}

	sources := make([]string, 0, len(file.Sources))
	for i, raw := range file.Sources {
		source := strings.TrimSpace(raw)
		if err := validateSource(source); err != nil {
			return nil, fmt.Errorf("sources file %s, entry %d: %w", path, i+1, err)
		}
		sources = append(sources, source)
	}

	return sources, nil
}

func validateSource(source string) error {
	if source == "" {
		return fmt.Errorf("source URL cannot be empty")
	}

	u, err := url.Parse(source)
	if err != nil {
		return fmt.Errorf("invalid source URL %q: %w", source, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("source URL %q must use http or https", source)
	}
	if u.Host == "" {
		return fmt.Errorf("source URL %q has no host", source)
	}

	return nil
}
