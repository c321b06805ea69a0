package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	base "github.com/haitiwallet/console/libs/config"
	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/state"
	"github.com/haitiwallet/console/services/console/internal/views"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type SessionConfig struct {
	Store    string
	FilePath string
	Redis    RedisConfig
}

type AuditConfig struct {
	Brokers  []string
	Topic    string
	DLQTopic string
	ClientID string
}

type Config struct {
	App         base.AppConfig
	Backend     BackendConfig
	PublicURL   string
	Session     SessionConfig
	FXFallback  backend.FXRates
	PageSize    int
	GuardWindow time.Duration
	StatsDays   int
	Audit       AuditConfig
	AccessToken string
	Payments    views.PaymentDirectory
}

func Load() (*Config, error) {
	appCfg, v, err := base.LoadWithViper(os.Getenv("HW_CONFIG"))
	if err != nil {
		return nil, err
	}

	fx := state.DefaultFX()
	cfg := &Config{
		App: *appCfg,
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(envString("HW_BACKEND_URL", "http://127.0.0.1:8000"), "/"),
			Timeout: envDuration("HW_BACKEND_TIMEOUT", 10*time.Second),
		},
		PublicURL: strings.TrimRight(envString("HW_PUBLIC_URL", fmt.Sprintf("http://%s:%d", appCfg.HTTP.Host, appCfg.HTTP.Port)), "/"),
		Session: SessionConfig{
			Store:    strings.ToLower(envString("HW_SESSION_STORE", StoreFile)),
			FilePath: envString("HW_SESSION_FILE", defaultSessionFile()),
			Redis: RedisConfig{
				Addr:     envString("HW_SESSION_REDIS_ADDR", "127.0.0.1:6379"),
				Password: envString("HW_SESSION_REDIS_PASSWORD", ""),
				DB:       envInt("HW_SESSION_REDIS_DB", 0),
				Prefix:   envString("HW_SESSION_REDIS_PREFIX", "hw:console:session:"),
			},
		},
		FXFallback: backend.FXRates{
			SellUSD: envDecimal("HW_FX_SELL_USD", fx.SellUSD),
			BuyUSD:  envDecimal("HW_FX_BUY_USD", fx.BuyUSD),
		},
		PageSize:    envInt("HW_USERS_PAGE_SIZE", views.DefaultPageSize),
		GuardWindow: envDuration("HW_SUBMIT_GUARD_WINDOW", 1500*time.Millisecond),
		StatsDays:   envInt("HW_ADMIN_STATS_DAYS", 30),
		Audit: AuditConfig{
			Brokers:  envList("HW_AUDIT_BROKERS"),
			Topic:    envString("HW_AUDIT_TOPIC", "console.audit"),
			DLQTopic: envString("HW_AUDIT_DLQ_TOPIC", ""),
			ClientID: envString("HW_AUDIT_CLIENT_ID", appCfg.ServiceName),
		},
		AccessToken: envString("HW_CONSOLE_ACCESS_TOKEN", ""),
		Payments:    loadPayments(v),
	}

	if cfg.Session.Store != StoreFile && cfg.Session.Store != StoreRedis {
		return nil, fmt.Errorf("HW_SESSION_STORE must be %q or %q, got %q", StoreFile, StoreRedis, cfg.Session.Store)
	}
	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("HW_BACKEND_URL must be set")
	}

	return cfg, nil
}

// loadPayments overlays payments.<method>.{label,to,how} from the config tree onto the defaults.
func loadPayments(v *viper.Viper) views.PaymentDirectory {
	out := views.DefaultPayments()
	if v == nil {
		return out
	}
	for method := range v.GetStringMap("payments") {
		key := strings.ToLower(method)
		pm := out[key]
		if s := v.GetString("payments." + method + ".label"); s != "" {
			pm.Label = s
		}
		if s := v.GetString("payments." + method + ".to"); s != "" {
			pm.To = s
		}
		if s := v.GetString("payments." + method + ".how"); s != "" {
			pm.How = s
		}
		out[key] = pm
	}
	return out
}

func defaultSessionFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/haitiwallet/session.json"
	}
	return ".haitiwallet-session.json"
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envDecimal(key string, def decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			return d
		}
	}
	return def
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
