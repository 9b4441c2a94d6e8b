package cmd

import (
	"os"
	"strings"

	v1 "github.com/djcass44/aptforge/pkg/api/v1"
	"github.com/drone/envsubst"
	"k8s.io/apimachinery/pkg/util/yaml"
)

const flagConfig = "config"

// readConfig loads the repository definition, expanding ${VAR} references
// so credentials and paths can come from the environment.
func readConfig(s string) (v1.Repository, error) {
	data, err := os.ReadFile(s)
	if err != nil {
		return v1.Repository{}, err
	}
	expanded, err := envsubst.EvalEnv(string(data))
	if err != nil {
		return v1.Repository{}, err
	}

	var config v1.Repository
	if err := yaml.NewYAMLOrJSONDecoder(strings.NewReader(expanded), 4).Decode(&config); err != nil {
		return v1.Repository{}, err
	}
	config.Spec = config.Spec.Defaulted()
	return config, nil
}
