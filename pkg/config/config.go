package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig    `envconfig:"SERVER"`
	Database  DatabaseConfig  `envconfig:"DB"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	Storage   StorageConfig   `envconfig:"STORAGE"`
	Gemini    GeminiConfig    `envconfig:"GEMINI"`
	Pipeline  PipelineConfig  `envconfig:"PIPELINE"`
	Recompute RecomputeConfig `envconfig:"RECOMPUTE"`
	Tracing   TracingConfig   `envconfig:"TRACING"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"HOST" default:"localhost"`
	Port        string `envconfig:"PORT" default:"5432"`
	User        string `envconfig:"USER" default:"postgres"`
	Password    string `envconfig:"PASSWORD" default:"postgres"`
	Name        string `envconfig:"NAME" default:"shot_analyzer"`
	SSLMode     string `envconfig:"SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"true"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"6379"`
	Password string `envconfig:"PASSWORD" default:""`
	DB       int    `envconfig:"DB" default:"0"`
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Endpoint        string        `envconfig:"ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string        `envconfig:"ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string        `envconfig:"SECRET_KEY" default:"minioadmin"`
	BucketName      string        `envconfig:"BUCKET" default:"shot-videos"`
	UseSSL          bool          `envconfig:"USE_SSL" default:"false"`
	MaxVideoBytes   int64         `envconfig:"MAX_VIDEO_BYTES" default:"209715200"`
	RetryMaxElapsed time.Duration `envconfig:"RETRY_MAX_ELAPSED" default:"30s"`
}

// GeminiConfig holds generative model configuration.
// An empty APIKey disables every model call and enables the heuristic fallbacks.
type GeminiConfig struct {
	APIKey  string        `envconfig:"API_KEY" default:""`
	BaseURL string        `envconfig:"BASE_URL" default:"https://generativelanguage.googleapis.com"`
	Model   string        `envconfig:"MODEL" default:"gemini-2.0-flash"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"60s"`
}

// PipelineConfig holds analysis pipeline tuning
type PipelineConfig struct {
	Workers            int           `envconfig:"WORKERS" default:"2"`
	AngleWorkers       int           `envconfig:"ANGLE_WORKERS" default:"4"`
	QueueSize          int           `envconfig:"QUEUE_SIZE" default:"64"`
	KeyframeCount      int           `envconfig:"KEYFRAME_COUNT" default:"12"`
	EvidenceFrames     int           `envconfig:"EVIDENCE_FRAMES" default:"3"`
	BoundaryFrames     int           `envconfig:"BOUNDARY_FRAMES" default:"16"`
	FFmpegPath         string        `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	FFprobePath        string        `envconfig:"FFPROBE_PATH" default:"ffprobe"`
	FrameHeight        int           `envconfig:"FRAME_HEIGHT" default:"720"`
	JPEGQuality        int           `envconfig:"JPEG_QUALITY" default:"85"`
	MinSampleInterval  float64       `envconfig:"MIN_SAMPLE_INTERVAL" default:"0.1"`
	MaxSampleDuration  float64       `envconfig:"MAX_SAMPLE_DURATION" default:"30"`
	BoundaryConfidence float64       `envconfig:"BOUNDARY_CONFIDENCE" default:"0.5"`
	RejectConfidence   float64       `envconfig:"REJECT_CONFIDENCE" default:"0.9"`
	RunTimeout         time.Duration `envconfig:"RUN_TIMEOUT" default:"5m"`
	PollInterval       time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`
}

// RecomputeConfig holds batch recompute configuration
type RecomputeConfig struct {
	PageSize int           `envconfig:"PAGE_SIZE" default:"200"`
	Schedule string        `envconfig:"SCHEDULE" default:""`
	LockTTL  time.Duration `envconfig:"LOCK_TTL" default:"10m"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool    `envconfig:"ENABLED" default:"false"`
	ServiceName string  `envconfig:"SERVICE_NAME" default:"shot-analyzer"`
	SampleRatio float64 `envconfig:"SAMPLE_RATIO" default:"1"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Pipeline.KeyframeCount < 10 || c.Pipeline.KeyframeCount > 30 {
		return fmt.Errorf("PIPELINE_KEYFRAME_COUNT must be between 10 and 30")
	}
	if c.Pipeline.BoundaryFrames < 2 || c.Pipeline.BoundaryFrames > 16 {
		return fmt.Errorf("PIPELINE_BOUNDARY_FRAMES must be between 2 and 16")
	}
	if c.Pipeline.AngleWorkers < 1 {
		return fmt.Errorf("PIPELINE_ANGLE_WORKERS must be positive")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be positive")
	}
	if c.Pipeline.BoundaryConfidence < 0 || c.Pipeline.BoundaryConfidence > 1 {
		return fmt.Errorf("PIPELINE_BOUNDARY_CONFIDENCE must be within [0,1]")
	}
	if c.Pipeline.RejectConfidence < 0 || c.Pipeline.RejectConfidence > 1 {
		return fmt.Errorf("PIPELINE_REJECT_CONFIDENCE must be within [0,1]")
	}
	if c.Recompute.PageSize < 1 {
		return fmt.Errorf("RECOMPUTE_PAGE_SIZE must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
