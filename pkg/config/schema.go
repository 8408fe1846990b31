package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaPrefix  = "gousemin-config-v"
	latestVersion = "1.0.0"
)

// SchemaVersion represents a configuration schema version
type SchemaVersion struct {
	Major int
	Minor int
	Patch int
}

// String returns the string representation of the version
func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseSchemaVersion parses a version string into SchemaVersion
func ParseSchemaVersion(version string) (SchemaVersion, error) {
	version = strings.TrimPrefix(version, "v")
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return SchemaVersion{}, fmt.Errorf("invalid version format: %s", version)
	}

	var v SchemaVersion
	_, err := fmt.Sscanf(version, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("failed to parse version: %v", err)
	}

	return v, nil
}

// ValidateConfig validates JSON configuration against the schema of the
// given version
func ValidateConfig(configData []byte, schemaVersion string) error {
	schemaLoader, err := getSchemaLoader(schemaVersion)
	if err != nil {
		return fmt.Errorf("failed to load schema for version %s: %v", schemaVersion, err)
	}

	documentLoader := gojsonschema.NewBytesLoader(configData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %v", err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

// ValidateConfigFile reads a YAML, TOML or JSON config file and validates it
// against the schema it declares, or the latest one.
func ValidateConfigFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", file, err)
	}
	doc, err := toJSON(data, filepath.Ext(file))
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", file, err)
	}
	version, err := DetectSchemaVersion(doc)
	if err != nil {
		return err
	}
	if err := ValidateConfig(doc, version); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	return nil
}

// toJSON converts a YAML or TOML document to JSON. JSON input is returned
// as is.
func toJSON(data []byte, ext string) ([]byte, error) {
	var doc map[string]interface{}
	switch strings.ToLower(ext) {
	case ".json":
		return data, nil
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return json.Marshal(doc)
}

// getSchemaLoader returns the appropriate schema loader for the given version
func getSchemaLoader(version string) (gojsonschema.JSONLoader, error) {
	v, err := ParseSchemaVersion(version)
	if err != nil {
		return nil, err
	}
	data, err := schemaFS.ReadFile(path.Join("schemas", schemaPrefix+v.String()+".json"))
	if err != nil {
		return nil, fmt.Errorf("unsupported schema version: %s", version)
	}
	return gojsonschema.NewBytesLoader(data), nil
}

// DetectSchemaVersion detects the schema version from config data
func DetectSchemaVersion(configData []byte) (string, error) {
	var config map[string]interface{}
	if err := json.Unmarshal(configData, &config); err != nil {
		return "", fmt.Errorf("failed to parse config as JSON: %v", err)
	}

	// Check for $schema field
	if schema, ok := config["$schema"]; ok {
		schemaStr, ok := schema.(string)
		if !ok {
			return "", fmt.Errorf("$schema must be a string")
		}

		// Extract version from schema URL
		if i := strings.LastIndex(schemaStr, "/v"); i >= 0 {
			if v, err := ParseSchemaVersion(schemaStr[i+2:]); err == nil {
				return v.String(), nil
			}
		}
	}

	// Default to latest version if no schema specified
	return latestVersion, nil
}

// GetAvailableSchemas returns a list of available schema versions
func GetAvailableSchemas() ([]string, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("failed to list schema files: %v", err)
	}

	var versions []string
	for _, e := range entries {
		name := e.Name()
		// gousemin-config-v1.0.0.json -> 1.0.0
		if strings.HasPrefix(name, schemaPrefix) && strings.HasSuffix(name, ".json") {
			versions = append(versions, strings.TrimSuffix(strings.TrimPrefix(name, schemaPrefix), ".json"))
		}
	}
	sort.Strings(versions)

	return versions, nil
}
