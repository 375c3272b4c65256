package output

import (
	"strings"

	"gopkg.in/yaml.v3"
)

func renderYAML(value any) (string, error) {
	doc, err := normalize(value)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}
