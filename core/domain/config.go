package domain

// ModuleConfig is the host-side description of one login module instance.
type ModuleConfig struct {
	Name    string            `mapstructure:"name" json:"name"`       // Instance name used in logs and metrics (e.g. "local")
	Type    string            `mapstructure:"type" json:"type"`       // Module implementation type ("file", "db")
	Options map[string]string `mapstructure:"options" json:"options"` // Untyped options resolved by the module
}
