package app

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/services"
	"github.com/strivefit/strivefit-backend/internal/utils"
)

type Config struct {
	ServiceName         string
	Environment         string
	Version             string
	Port                string
	AllowOrigins        []string
	EnforceEntitlements bool
	Tuning              services.Tuning
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ServiceName:         utils.GetEnv("SERVICE_NAME", "strivefit", log),
		Environment:         utils.GetEnv("ENVIRONMENT", "development", log),
		Version:             utils.GetEnv("SERVICE_VERSION", "dev", log),
		Port:                utils.GetEnv("PORT", "8080", log),
		EnforceEntitlements: utils.GetEnvAsBool("ENFORCE_ENTITLEMENTS", true, log),
		Tuning:              loadTuning(log),
	}
	if raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
			}
		}
	}
	return cfg
}

// loadTuning starts from the built-in defaults and overlays the yaml file
// named by ENGINE_TUNING_FILE, when set. A broken file keeps the defaults.
func loadTuning(log *logger.Logger) services.Tuning {
	tuning := services.DefaultTuning()
	path := utils.GetEnv("ENGINE_TUNING_FILE", "", log)
	if path == "" {
		return tuning
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("tuning file unreadable, using defaults", "path", path, "error", err)
		return tuning
	}
	if err := yaml.Unmarshal(raw, &tuning); err != nil {
		log.Warn("tuning file invalid, using defaults", "path", path, "error", err)
		return services.DefaultTuning()
	}
	log.Info("engine tuning loaded", "path", path)
	return tuning
}
