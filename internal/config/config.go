package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config for the creditboost portal. Everything comes from the environment;
// a local .env file is read first when present.
type Config struct {
	HTTP struct {
		Addr string
	}
	Log struct {
		Level  string
		Format string
	}

	// EncryptionKey is the SSN key. Empty is allowed: masking degrades to
	// full redaction and only encrypt/decrypt fail.
	EncryptionKey string

	Data       DataConfig
	SharePoint SharePointConfig
	Redis      RedisConfig
	Admin      AdminConfig
}

// DataConfig points at the local resident sources.
type DataConfig struct {
	ExcelPath    string
	JSONPath     string
	SnapshotPath string // optional flat-file copy of the in-memory residents
	PaymentSeed  int64  // 0 = seeded from the clock
}

// SharePointConfig Microsoft Graph list source.
type SharePointConfig struct {
	ClientID     string
	ClientSecret string
	TenantID     string
	Host         string
	SitePath     string
	ListID       string
	AuthorityURL string
	GraphURL     string
	CacheTTL     time.Duration
}

// Configured reports whether the client credentials are all present.
func (c SharePointConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.TenantID != ""
}

// RedisConfig optional cache for remote source payloads.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// AdminConfig demo admin credential. PasswordHash (bcrypt) wins over Password.
type AdminConfig struct {
	Email        string
	Password     string
	PasswordHash string
}

func Load() *Config {
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":5000")
	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.EncryptionKey = os.Getenv("ENCRYPTION_KEY")

	cfg.Data.ExcelPath = getEnv("RESIDENTS_XLSX", "Resident PII Test.xlsx")
	cfg.Data.JSONPath = getEnv("RESIDENTS_JSON", "test_data.json")
	cfg.Data.SnapshotPath = getEnv("SNAPSHOT_PATH", "")
	cfg.Data.PaymentSeed = parseInt64(getEnv("PAYMENT_SEED", "0"), 0)

	cfg.SharePoint.ClientID = getEnv("AZURE_CLIENT_ID", "")
	cfg.SharePoint.ClientSecret = getEnv("AZURE_CLIENT_SECRET", "")
	cfg.SharePoint.TenantID = getEnv("AZURE_TENANT_ID", "")
	cfg.SharePoint.Host = getEnv("SHAREPOINT_HOST", "peakcampus.sharepoint.com")
	cfg.SharePoint.SitePath = getEnv("SHAREPOINT_SITE_PATH", "/sites/BaseCampApps")
	cfg.SharePoint.ListID = getEnv("SHAREPOINT_LIST_ID", "7569dfb7-5d2f-452d-a384-0af63b38b559")
	cfg.SharePoint.AuthorityURL = getEnv("AZURE_AUTHORITY_URL", "https://login.microsoftonline.com")
	cfg.SharePoint.GraphURL = getEnv("GRAPH_API_URL", "https://graph.microsoft.com")
	cfg.SharePoint.CacheTTL = parseDuration(getEnv("SOURCE_CACHE_TTL", "5m"), 5*time.Minute)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Admin.Email = getEnv("ADMIN_EMAIL", "pbatson@peakmade.com")
	cfg.Admin.Password = getEnv("ADMIN_PASSWORD", "admin")
	cfg.Admin.PasswordHash = getEnv("ADMIN_PASSWORD_HASH", "")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseInt64(s string, def int64) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
