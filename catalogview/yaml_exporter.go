package catalogview

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLExporter is the default GraphExporter: it renders the Graph to a YAML
// file, for inspection, matching the design notes' "default exporter that
// renders to YAML."
type YAMLExporter struct {
	Path string
}

func (e YAMLExporter) Export(g *Graph) error {
	data, err := yaml.Marshal(g)
	if err != nil {
		return err
	}
	return os.WriteFile(e.Path, data, 0644)
}
