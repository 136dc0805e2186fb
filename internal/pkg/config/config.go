package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (tokens, DB connection), security settings
// - default: Values common across all environments (delays, timezone, timeout), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server Server
	DB     DB
	Log    Log
	Bot    Bot
	VK     VK
	CRM    CRM
	Nudge  Nudge
	Admin  Admin
}

type Server struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DB struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" default:"usdt_exchange"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type Log struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

type Bot struct {
	Token         string `envconfig:"BOT_TOKEN" required:"true"`
	APIBaseURL    string `envconfig:"BOT_API_BASE_URL" default:"https://api.telegram.org"`
	WebhookSecret string `envconfig:"BOT_WEBHOOK_SECRET" default:""`
}

type VK struct {
	GroupToken   string `envconfig:"VK_GROUP_TOKEN" default:""`
	GroupID      int64  `envconfig:"VK_GROUP_ID" default:"0"`
	Confirmation string `envconfig:"VK_CONFIRMATION" default:""`
	Secret       string `envconfig:"VK_SECRET" default:""`
	APIBaseURL   string `envconfig:"VK_API_BASE_URL" default:"https://api.vk.com"`
}

type CRM struct {
	Mode    string        `envconfig:"CRM_MODE" default:"mock"`
	BaseURL string        `envconfig:"CRM_BASE_URL" default:""`
	Token   string        `envconfig:"CRM_TOKEN" default:""`
	Timeout time.Duration `envconfig:"CRM_TIMEOUT" default:"10s"`

	OfficesPath       string `envconfig:"CRM_OFFICES_PATH" default:"/offices"`
	RatesPath         string `envconfig:"CRM_RATES_PATH" default:"/rates"`
	CreateRequestPath string `envconfig:"CRM_CREATE_REQUEST_PATH" default:"/requests"`
	EventPath         string `envconfig:"CRM_EVENT_PATH" default:"/events"`
	StatusPath        string `envconfig:"CRM_STATUS_PATH" default:"/requests/status"`

	IdempotencyHeader string `envconfig:"CRM_IDEMPOTENCY_HEADER" default:"Idempotency-Key"`
	AuthHeader        string `envconfig:"CRM_AUTH_HEADER" default:"Authorization"`
	AuthPrefix        string `envconfig:"CRM_AUTH_PREFIX" default:"Bearer"`
}

type Nudge struct {
	WorkerInterval time.Duration `envconfig:"NUDGE_WORKER_INTERVAL" default:"60s"`
	BatchLimit     int32         `envconfig:"NUDGE_BATCH_LIMIT" default:"50"`

	Nudge1Delay time.Duration `envconfig:"NUDGE1_DELAY" default:"20m"`
	Nudge2Delay time.Duration `envconfig:"NUDGE2_DELAY" default:"15m"`
	Nudge3Delay time.Duration `envconfig:"NUDGE3_DELAY" default:"100m"`
	Nudge4Delay time.Duration `envconfig:"NUDGE4_DELAY" default:"24h"`
	Nudge5Delay time.Duration `envconfig:"NUDGE5_DELAY" default:"336h"`
	Nudge6Delay time.Duration `envconfig:"NUDGE6_DELAY" default:"360h"`
	Nudge7Delay time.Duration `envconfig:"NUDGE7_DELAY" default:"384h"`

	BusinessTimeZone string `envconfig:"BUSINESS_TIMEZONE" default:"Europe/Istanbul"`

	PurgeSchedule  string        `envconfig:"NUDGE_PURGE_SCHEDULE" default:"0 4 * * *"`
	DraftRetention time.Duration `envconfig:"DRAFT_RETENTION" default:"720h"`
}

type Admin struct {
	// Comma or semicolon separated peer IDs allowed to use admin commands.
	IDs      string `envconfig:"ADMIN_IDS" default:""`
	APIToken string `envconfig:"ADMIN_API_TOKEN" default:""`
}

func (a Admin) PeerIDs() map[int64]struct{} {
	ids := make(map[int64]struct{})
	raw := strings.ReplaceAll(a.IDs, ";", ",")
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids[id] = struct{}{}
	}
	return ids
}

func (c *DB) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: Server{Port: "8889"},
		DB: DB{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Log: Log{Level: "error"},
		Bot: Bot{Token: "test-token"},
		CRM: CRM{
			Mode:              "mock",
			Timeout:           time.Second,
			IdempotencyHeader: "Idempotency-Key",
			AuthHeader:        "Authorization",
			AuthPrefix:        "Bearer",
		},
		Nudge: Nudge{
			WorkerInterval:   time.Second,
			BatchLimit:       50,
			Nudge1Delay:      time.Minute,
			Nudge2Delay:      time.Minute,
			Nudge3Delay:      time.Minute,
			Nudge4Delay:      time.Minute,
			Nudge5Delay:      time.Minute,
			Nudge6Delay:      2 * time.Minute,
			Nudge7Delay:      3 * time.Minute,
			BusinessTimeZone: "Europe/Istanbul",
			PurgeSchedule:    "0 4 * * *",
			DraftRetention:   time.Hour,
		},
	}
}
