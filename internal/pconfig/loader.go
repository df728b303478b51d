package pconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadProjectConfig reads the project manifest at path.
func LoadProjectConfig(path string) (ProjectConfig, error) {
	var cfg ProjectConfig
	if err := loadYAML(path, &cfg); err != nil {
		return ProjectConfig{}, fmt.Errorf("load project config %q: %w", path, err)
	}
	return cfg, nil
}

// LoadConnectionProfile reads a connection-profile file, which names
// either a single connection (treated as the "default" profile) or a
// map of named connections, mirroring the two accepted shapes the
// loader's format has always supported.
func LoadConnectionProfile(path string) (map[string]AdapterConnectionConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load connection profile %q: %w", path, err)
	}

	var single AdapterConnectionConfig
	if err := yaml.Unmarshal(raw, &single); err == nil && single.Host != "" {
		return map[string]AdapterConnectionConfig{"default": single}, nil
	}

	var named map[string]AdapterConnectionConfig
	if err := yaml.Unmarshal(raw, &named); err != nil {
		return nil, fmt.Errorf("parse connection profile %q: %w", path, err)
	}
	return named, nil
}

// LoadWarehouseSources reads a list of warehouse-source declarations
// from a single YAML document.
func LoadWarehouseSources(path string) ([]WarehouseSourceConfig, error) {
	var sources []WarehouseSourceConfig
	if err := loadYAML(path, &sources); err != nil {
		return nil, fmt.Errorf("load warehouse sources %q: %w", path, err)
	}
	return sources, nil
}

// LoadKafkaClusters reads a list of Kafka-cluster declarations from a
// single YAML document.
func LoadKafkaClusters(path string) ([]KafkaClusterConfig, error) {
	var clusters []KafkaClusterConfig
	if err := loadYAML(path, &clusters); err != nil {
		return nil, fmt.Errorf("load kafka clusters %q: %w", path, err)
	}
	return clusters, nil
}

func loadYAML(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	return dec.Decode(out)
}
