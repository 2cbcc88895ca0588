package config

import (
	"os"
	"strconv"
)

// ApplyEnvOverrides layers the spec's documented environment variables
// on top of a loaded Config. Environment variables win over the file,
// matching the teacher's override-merge direction (explicit overrides
// beat the loaded file).
func ApplyEnvOverrides(c *Config) {
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		c.Server.LogLevel = v
	}
	if v, ok := os.LookupEnv("LOG_DIR"); ok {
		c.Server.LogDir = v
	}
	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = v
	}
	if v, ok := os.LookupEnv("DATABASE_URL"); ok {
		c.Server.DatabaseURL = v
	}
	if v, ok := envBool("DEMO_MODE"); ok {
		c.Server.DemoMode = v
	}
	if v, ok := envBool("DEMO_DETERMINISTIC"); ok {
		c.Server.DemoDeterministic = v
	}
	if v, ok := envBool("GNN_ENABLED"); ok {
		c.Server.GNNEnabled = v
	}
	if v, ok := envBool("CARBON_ENABLED"); ok {
		c.Server.CarbonEnabled = v
	}
	if v, ok := envBool("TOPOLOGY_FALLBACK"); ok {
		c.Server.TopologyFallback = v
	}
	if v, ok := envBool("EXPLAINER_ENABLED"); ok {
		c.Server.ExplainerEnabled = v
	}
	if v, ok := os.LookupEnv("DEMO_SEED"); ok {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Server.DemoSeed = seed
		}
	}
}

func envBool(name string) (bool, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false, false
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return parsed, true
}
