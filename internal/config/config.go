package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Capture  CaptureConfig  `mapstructure:"capture"`
	Detector DetectorConfig `mapstructure:"detector"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
	ReadTimeout  int      `mapstructure:"read_timeout"`
	WriteTimeout int      `mapstructure:"write_timeout"`
}

type AuthConfig struct {
	// JWTSecret enables bearer auth on mutating endpoints when non-empty.
	JWTSecret string `mapstructure:"jwt_secret"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type CameraConfig struct {
	// SnapshotURL is the IP camera still-frame endpoint polled in capture mode.
	SnapshotURL string `mapstructure:"snapshot_url"`
	Model       string `mapstructure:"model"`
}

type CaptureConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	FrameWidth    int           `mapstructure:"frame_width"`
	JPEGQuality   int           `mapstructure:"jpeg_quality"`
	LogCapacity   int           `mapstructure:"log_capacity"`
	AlertDuration time.Duration `mapstructure:"alert_duration"`
}

type DetectorConfig struct {
	// Backend selects the detection implementation: "rekognition" or "stub".
	Backend   string `mapstructure:"backend"`
	AWSRegion string `mapstructure:"aws_region"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Load reads configuration from an optional config file and PLATEWATCH_*
// environment variables, applying defaults for everything unset.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "platewatch")
	v.SetDefault("database.password", "platewatch")
	v.SetDefault("database.name", "platewatch")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("camera.snapshot_url", "")
	v.SetDefault("camera.model", "")

	v.SetDefault("capture.interval", 1800*time.Millisecond)
	v.SetDefault("capture.frame_width", 640)
	v.SetDefault("capture.jpeg_quality", 60)
	v.SetDefault("capture.log_capacity", 10)
	v.SetDefault("capture.alert_duration", 5*time.Second)

	v.SetDefault("detector.backend", "rekognition")
	v.SetDefault("detector.aws_region", "eu-central-1")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetEnvPrefix("PLATEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
