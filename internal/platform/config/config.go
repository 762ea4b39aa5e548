package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/proudcore/economy_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	CurrenciesFile string

	// Admin auth: a bcrypt hash of the bootstrap secret exchanged for a JWT.
	AdminSecretHash string
	AdminJWTSecret  string
	AdminJWTExpiry  time.Duration
	AdminJWTIssuer  string

	// Rate limit applied to mutating routes, in ulule/limiter format (e.g. "100-M").
	RateLimit string

	// Interval between automatic bulk flushes of cached balances.
	FlushInterval time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("CURRENCIES_FILE", "config/currencies.yml")
	viper.SetDefault("ADMIN_SECRET_HASH", "")
	viper.SetDefault("ADMIN_JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("ADMIN_JWT_EXPIRY", "1h")
	viper.SetDefault("ADMIN_JWT_ISSUER", "economy-ledger")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("FLUSH_INTERVAL", "5m")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.CurrenciesFile = viper.GetString("CURRENCIES_FILE")

	cfg.AdminSecretHash = viper.GetString("ADMIN_SECRET_HASH")
	if cfg.AdminSecretHash == "" {
		log.Println("Warning: ADMIN_SECRET_HASH not set. Admin token endpoint will reject all requests.")
	}

	cfg.AdminJWTSecret = viper.GetString("ADMIN_JWT_SECRET")
	if cfg.AdminJWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: ADMIN_JWT_SECRET not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("ADMIN_JWT_EXPIRY")
	jwtExpiry, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiry = time.Hour
		log.Printf("Warning: Invalid value for ADMIN_JWT_EXPIRY ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiry)
	}
	cfg.AdminJWTExpiry = jwtExpiry
	cfg.AdminJWTIssuer = viper.GetString("ADMIN_JWT_ISSUER")

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	flushStr := viper.GetString("FLUSH_INTERVAL")
	flushInterval, err := time.ParseDuration(flushStr)
	if err != nil || flushInterval <= 0 {
		flushInterval = 5 * time.Minute
		log.Printf("Warning: Invalid value for FLUSH_INTERVAL ('%s'). Defaulting to %s.\n", flushStr, flushInterval)
	}
	cfg.FlushInterval = flushInterval

	return cfg, nil
}

// currencyDefinition is the on-disk shape of one catalog entry.
type currencyDefinition struct {
	ID              string  `mapstructure:"id"`
	NameSingular    string  `mapstructure:"name_singular"`
	NamePlural      string  `mapstructure:"name_plural"`
	Symbol          string  `mapstructure:"symbol"`
	StartingBalance float64 `mapstructure:"starting_balance"`
	MaxBalance      float64 `mapstructure:"max_balance"` // -1 for unlimited
	DecimalPlaces   int     `mapstructure:"decimal_places"`
	Primary         bool    `mapstructure:"primary"`
}

// LoadCurrencies reads the currency catalog definition file (YAML). The
// resulting slice is validated by the catalog constructor; this only parses.
func LoadCurrencies(path string) ([]domain.Currency, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read currencies file %s: %w", path, err)
	}

	var defs []currencyDefinition
	if err := v.UnmarshalKey("currencies", &defs); err != nil {
		return nil, fmt.Errorf("failed to parse currencies file %s: %w", path, err)
	}

	currencies := make([]domain.Currency, len(defs))
	for i, def := range defs {
		currencies[i] = domain.Currency{
			ID:              def.ID,
			NameSingular:    def.NameSingular,
			NamePlural:      def.NamePlural,
			Symbol:          def.Symbol,
			StartingBalance: decimal.NewFromFloat(def.StartingBalance),
			MaxBalance:      decimal.NewFromFloat(def.MaxBalance),
			DecimalPlaces:   def.DecimalPlaces,
			IsPrimary:       def.Primary,
		}
	}
	return currencies, nil
}
