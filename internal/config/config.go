package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Export sink kinds
const (
	SinkNotion   = "notion"
	SinkPostgres = "postgres"
	SinkNone     = "none"
)

// Config holds all application configuration
type Config struct {
	Server      Server      `yaml:"server"`
	Threads     Threads     `yaml:"threads"`
	Session     Session     `yaml:"session"`
	Aggregation Aggregation `yaml:"aggregation"`
	Export      Export      `yaml:"export"`
	Notion      Notion      `yaml:"notion"`
	Database    Database    `yaml:"database"`
	S3          S3          `yaml:"s3"`
	Log         Log         `yaml:"log"`
}

// Server holds HTTP server configuration
type Server struct {
	Host           string        `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port           string        `yaml:"port" env:"PORT" env-default:"8000"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"10m"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" env-default:"10m"` // bulk routes run for minutes
	TLSCertFile    string        `yaml:"tls_cert_file" env:"TLS_CERT_FILE"`
	TLSKeyFile     string        `yaml:"tls_key_file" env:"TLS_KEY_FILE"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// TLSEnabled reports whether both certificate and key are configured
func (s Server) TLSEnabled() bool {
	return s.TLSCertFile != "" && s.TLSKeyFile != ""
}

// Threads holds Threads API configuration
type Threads struct {
	BaseURL            string        `yaml:"base_url" env:"THREADS_BASE_URL" env-default:"https://graph.threads.net"`
	AuthBaseURL        string        `yaml:"auth_base_url" env:"THREADS_AUTH_BASE_URL" env-default:"https://www.threads.net"`
	APIVersion         string        `yaml:"api_version" env:"GRAPH_API_VERSION" env-default:"v1.0"`
	AppID              string        `yaml:"app_id" env:"APP_ID"`
	AppSecret          string        `yaml:"app_secret" env:"API_SECRET"`
	RedirectURI        string        `yaml:"redirect_uri" env:"REDIRECT_URI"`
	InitialAccessToken string        `yaml:"initial_access_token" env:"INITIAL_ACCESS_TOKEN"`
	InitialUserID      string        `yaml:"initial_user_id" env:"INITIAL_USER_ID"`
	RejectUnauthorized bool          `yaml:"reject_unauthorized" env:"REJECT_UNAUTHORIZED" env-default:"true"`
	RequestTimeout     time.Duration `yaml:"request_timeout" env:"THREADS_REQUEST_TIMEOUT" env-default:"30s"`
	PollAttempts       int           `yaml:"poll_attempts" env:"THREADS_POLL_ATTEMPTS" env-default:"30"`
	PollInterval       time.Duration `yaml:"poll_interval" env:"THREADS_POLL_INTERVAL" env-default:"5s"`
}

// DefaultSessionSecret signs cookies when SESSION_SECRET is unset
const DefaultSessionSecret = "change-me"

// Session holds cookie session configuration
type Session struct {
	Secret     string `yaml:"secret" env:"SESSION_SECRET" env-default:"change-me"`
	CookieName string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"threads_session"`
	MaxAge     int    `yaml:"max_age" env:"SESSION_MAX_AGE" env-default:"6000"`
}

// InsecureSecret reports whether cookies are signed with a known key
func (s Session) InsecureSecret() bool {
	return s.Secret == "" || s.Secret == DefaultSessionSecret
}

// Aggregation holds bulk fetch limits and pauses
type Aggregation struct {
	PageSize             int           `yaml:"page_size" env:"AGGREGATION_PAGE_SIZE" env-default:"10"`
	MaxPages             int           `yaml:"max_pages" env:"AGGREGATION_MAX_PAGES" env-default:"10"`
	PagePause            time.Duration `yaml:"page_pause" env:"AGGREGATION_PAGE_PAUSE" env-default:"1s"`
	MaxReplyDepth        int           `yaml:"max_reply_depth" env:"AGGREGATION_MAX_REPLY_DEPTH" env-default:"50"`
	RepliesBatchSize     int           `yaml:"replies_batch_size" env:"AGGREGATION_REPLIES_BATCH_SIZE" env-default:"1"`
	RepliesBatchPause    time.Duration `yaml:"replies_batch_pause" env:"AGGREGATION_REPLIES_BATCH_PAUSE" env-default:"2s"`
	AllRepliesBatchSize  int           `yaml:"all_replies_batch_size" env:"AGGREGATION_ALL_REPLIES_BATCH_SIZE" env-default:"20"`
	AllRepliesBatchPause time.Duration `yaml:"all_replies_batch_pause" env:"AGGREGATION_ALL_REPLIES_BATCH_PAUSE" env-default:"250ms"`
}

// Export holds workspace export configuration
type Export struct {
	Sink     string        `yaml:"sink" env:"EXPORT_SINK" env-default:"notion"`
	Interval time.Duration `yaml:"interval" env:"EXPORT_INTERVAL" env-default:"350ms"`
}

// Notion holds Notion integration configuration
type Notion struct {
	Token      string `yaml:"token" env:"NOTION_TOKEN"`
	DatabaseID string `yaml:"database_id" env:"NOTION_DATABASE_ID"`
}

// Enabled reports whether the Notion sink can be built
func (n Notion) Enabled() bool {
	return n.Token != "" && n.DatabaseID != ""
}

// Database holds database configuration
type Database struct {
	// PostgreSQL
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL"`

	// Connection pool settings
	MaxOpenConns int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnLifetime time.Duration `yaml:"conn_lifetime" env:"DB_CONN_LIFETIME" env-default:"5m"`
}

// S3 holds S3/MinIO storage configuration for attachment uploads
type S3 struct {
	Enabled         bool   `yaml:"enabled" env:"S3_ENABLED" env-default:"false"`
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET" env-default:"media"`
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	PublicURL       string `yaml:"public_url" env:"S3_PUBLIC_URL" env-default:"http://localhost:9000/media"`
}

// Log holds logging configuration
type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
