// Package pconfig loads the project-level configuration this compiler
// needs to resolve a model or connector against real connection
// details: the project manifest, named connection profiles, and
// warehouse-source declarations. It only loads files the caller names
// explicitly — directory discovery/walking a project tree the way the
// original CLI's config loader does is out of scope here; this
// package is a config *reader*, not a project scaffold.
package pconfig

// ProjectConfig is the top-level "foundry-project.yml" manifest.
type ProjectConfig struct {
	Name              string `yaml:"name"`
	Version           string `yaml:"version"`
	CompilePath       string `yaml:"compile_path"`
	ConnectionProfile string `yaml:"connection_profile"`
}

// AdapterConnectionConfig is one named connection's details, loaded
// from the connection-profile file.
type AdapterConnectionConfig struct {
	Adapter  string `yaml:"adapter"`
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
	Password string `yaml:"password"`
	Port     string `yaml:"port"`
}

// WarehouseSourceConfig declares one warehouse-source adapter a
// model's source() macro can resolve against.
type WarehouseSourceConfig struct {
	Name     string `yaml:"name"`
	Database string `yaml:"database"`
	Schema   string `yaml:"schema"`
	Table    string `yaml:"table"`
}

// KerberosProfile names a connection's optional krb5 config file, for
// adapters that authenticate via Kerberos rather than a password.
type KerberosProfile struct {
	Krb5ConfigPath string `yaml:"krb5_config_path"`
	Principal      string `yaml:"principal"`
}

// KafkaClusterConfig names one Kafka cluster a connector's
// `USING CLUSTER` clause can target, loaded from the project's
// Kafka-clusters file.
type KafkaClusterConfig struct {
	Name             string `yaml:"name"`
	BootstrapServers string `yaml:"bootstrap_servers"`
}
