package revfinder

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Manifest maps logical asset paths to revved ones, as written by rev
// tools ("js/app.js": "js/app.1a2b3c4d.js").
type Manifest map[string]string

// LoadManifest reads a JSON, YAML or TOML manifest, chosen by extension.
func LoadManifest(fs billy.Filesystem, manifestPath string) (Manifest, error) {
	data, err := util.ReadFile(fs, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", manifestPath, err)
	}

	m := Manifest{}
	switch ext := strings.ToLower(path.Ext(manifestPath)); ext {
	case ".json":
		err = json.Unmarshal(data, &m)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	case ".toml":
		err = toml.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q for %s", ext, manifestPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", manifestPath, err)
	}
	return m.normalize(), nil
}

// normalize drops leading slashes so keys compare against joined paths.
func (m Manifest) normalize() Manifest {
	out := make(Manifest, len(m))
	for k, v := range m {
		out[strings.TrimPrefix(k, "/")] = v
	}
	return out
}
