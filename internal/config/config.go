package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/poofware/listings-service/internal/constants"
	"github.com/poofware/listings-service/internal/utils"
)

type Config struct {
	OrganizationName string
	AppName          string
	Env              string
	AppPort          string
	AppUrl           string
	DBUrl            string
	UploadsDir       string
	DBTimeout        time.Duration

	OrphanSweepSchedule string
	OrphanSweepGrace    time.Duration

	UniqueRunNumber string
	UniqueRunnerID  string

	// Feature-flag snapshots
	LDFlag_SeedDbWithTestData  bool
	LDFlag_CORSHighSecurity    bool
	LDFlag_OrphanSweepEnabled  bool
	LDFlag_UsingIsolatedSchema bool
}

const (
	OrganizationName    = utils.OrganizationName
	LDConnectionTimeout = 5 * time.Second
	DefaultAppName      = "listings-service"
	DefaultUploadsDir   = "public/uploads"
)

// build-time overrides, set with -ldflags
var (
	AppName             = DefaultAppName
	UniqueRunNumber     string
	UniqueRunnerID      string
	LDServerContextKey  string
	LDServerContextKind string
)

// flagSource is satisfied by *ld.LDClient.
type flagSource interface {
	BoolVariation(key string, context ldcontext.Context, defaultVal bool) (bool, error)
}

// secretSource is satisfied by *utils.BWSSecretsClient.
type secretSource interface {
	GetBWSSecrets(projectName string) (map[string]string, error)
}

// LoadConfig reads .env (when present), the process environment, optional
// Bitwarden secrets and optional LaunchDarkly flags. Any failure is fatal.
func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		utils.Logger.WithError(err).Warn("Failed to read .env file; using process environment only")
	}

	var secrets secretSource
	if os.Getenv("BWS_ACCESS_TOKEN") != "" {
		client, err := utils.NewBWSSecretsClient()
		if err != nil {
			utils.Logger.WithError(err).Fatal("Init BWS client")
		}
		defer client.Close()
		secrets = client
	}

	var flags flagSource
	if sdkKey := os.Getenv("LD_SDK_KEY"); sdkKey != "" {
		ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
		}
		if !ldClient.Initialized() {
			ldClient.Close()
			utils.Logger.Fatal("LaunchDarkly client failed to initialize")
		}
		defer ldClient.Close()
		flags = ldClient
	}

	cfg, err := load(os.Getenv, secrets, flags)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid configuration")
	}

	utils.Logger.Infof("Loaded config for %s (%s)", cfg.AppName, cfg.Env)
	return cfg
}

func load(getenv func(string) string, secrets secretSource, flags flagSource) (*Config, error) {
	cfg := &Config{
		OrganizationName:    OrganizationName,
		AppName:             AppName,
		UniqueRunNumber:     UniqueRunNumber,
		UniqueRunnerID:      UniqueRunnerID,
		UploadsDir:          DefaultUploadsDir,
		DBTimeout:           constants.DefaultDBTimeout,
		OrphanSweepSchedule: constants.DefaultOrphanSweepSchedule,
		OrphanSweepGrace:    constants.DefaultOrphanSweepGrace,
	}
	cfg.LDFlag_CORSHighSecurity = true
	cfg.LDFlag_OrphanSweepEnabled = true
	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}

	cfg.Env = getenv("ENV")
	if cfg.Env == "" {
		return nil, fmt.Errorf("ENV env var is missing")
	}
	cfg.AppPort = getenv("APP_PORT")
	if cfg.AppPort == "" {
		return nil, fmt.Errorf("APP_PORT env var is missing")
	}
	cfg.AppUrl = getenv("APP_URL_FROM_ANYWHERE")
	if cfg.AppUrl == "" {
		return nil, fmt.Errorf("APP_URL_FROM_ANYWHERE env var is missing")
	}

	cfg.DBUrl = getenv("DB_URL")
	if secrets != nil {
		project := fmt.Sprintf("%s-%s", cfg.AppName, cfg.Env)
		utils.Logger.Debugf("Fetching secrets from BWS project %s", project)
		appSecrets, err := secrets.GetBWSSecrets(project)
		if err != nil {
			return nil, fmt.Errorf("fetch BWS secrets: %w", err)
		}
		if v := appSecrets["DB_URL"]; v != "" {
			cfg.DBUrl = v
		}
	}
	if cfg.DBUrl == "" {
		return nil, fmt.Errorf("DB_URL is missing from both env and BWS secrets")
	}

	if v := strings.TrimSpace(getenv("UPLOADS_DIR")); v != "" {
		cfg.UploadsDir = v
	}
	if v := strings.TrimSpace(getenv("ORPHAN_SWEEP_SCHEDULE")); v != "" {
		cfg.OrphanSweepSchedule = v
	}

	var err error
	if cfg.DBTimeout, err = parseDuration(getenv, "DB_TIMEOUT", cfg.DBTimeout); err != nil {
		return nil, err
	}
	if cfg.OrphanSweepGrace, err = parseDuration(getenv, "ORPHAN_SWEEP_GRACE", cfg.OrphanSweepGrace); err != nil {
		return nil, err
	}

	if flags == nil {
		utils.Logger.Info("LD_SDK_KEY not set; using default feature flags")
		return cfg, nil
	}

	kind, key := LDServerContextKind, LDServerContextKey
	if kind == "" {
		kind = "service"
	}
	if key == "" {
		key = cfg.AppName
	}
	ctx := ldcontext.NewWithKind(ldcontext.Kind(kind), key)

	for _, f := range []struct {
		key string
		dst *bool
	}{
		{"seed_db_with_test_data", &cfg.LDFlag_SeedDbWithTestData},
		{"cors_high_security", &cfg.LDFlag_CORSHighSecurity},
		{"orphan_sweep_enabled", &cfg.LDFlag_OrphanSweepEnabled},
		{"using_isolated_schema", &cfg.LDFlag_UsingIsolatedSchema},
	} {
		v, err := flags.BoolVariation(f.key, ctx, *f.dst)
		if err != nil {
			return nil, fmt.Errorf("%s flag error: %w", f.key, err)
		}
		*f.dst = v
		utils.Logger.Debugf("%s flag: %t", f.key, v)
	}

	if cfg.LDFlag_UsingIsolatedSchema && (cfg.UniqueRunnerID == "" || cfg.UniqueRunNumber == "") {
		return nil, fmt.Errorf("using_isolated_schema requires UniqueRunnerID and UniqueRunNumber ldflags")
	}
	return cfg, nil
}

func parseDuration(getenv func(string) string, name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(name))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", name, raw)
	}
	return d, nil
}
