package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig — настройки HTTP-слоя.
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// UploadConfig — ограничения на загрузку файлов.
type UploadConfig struct {
	Dir               string   `mapstructure:"dir"`
	MaxFileSize       int64    `mapstructure:"max_file_size"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// ParserConfig — ограничения одного разбора файла.
type ParserConfig struct {
	MaxLines   int     `mapstructure:"max_lines"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DetectorConfig — пороги детекторов аномалий.
type DetectorConfig struct {
	SpikeStdDevs   float64 `mapstructure:"spike_std_devs"`
	BurstStdDevs   float64 `mapstructure:"burst_std_devs"`
	BusinessStart  int     `mapstructure:"business_hours_start"`
	BusinessEnd    int     `mapstructure:"business_hours_end"`
	IPMinRequests  int     `mapstructure:"ip_min_requests"`
	IPErrorRate    float64 `mapstructure:"ip_error_rate"`
	StatusFraction float64 `mapstructure:"status_fraction"`
}

// RedisConfig — подключение к Redis.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// StorageConfig — выбор бэкенда хранилища загрузок: "local" или "redis".
type StorageConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// LoggingConfig — настройки логирования и интеграции с Sentry.
type LoggingConfig struct {
	LogFile      string `mapstructure:"log_file"`
	SentryDSN    string `mapstructure:"sentry_dsn"`
	EnableSentry bool   `mapstructure:"enable_sentry"`
}

// AuthConfig — проверка bearer-токенов. Пустой секрет означает
// извлечение claims без проверки подписи (режим разработки).
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// AIConfig — необязательный генератор текстовых итогов.
// Пустой ключ полностью отключает обращение к внешнему сервису.
type AIConfig struct {
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	Model        string `mapstructure:"model"`
}

// Config описывает основные настройки сервиса.
// Источники (в порядке возрастания приоритета): значения по умолчанию,
// необязательный YAML-файл, переменные окружения LOGANALYZER_*.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Parser   ParserConfig   `mapstructure:"parser"`
	Detector DetectorConfig `mapstructure:"detector"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Auth     AuthConfig     `mapstructure:"auth"`
	AI       AIConfig       `mapstructure:"ai"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_file_size", 50*1024*1024)
	v.SetDefault("upload.allowed_extensions", []string{"log", "txt", "gz", "tar"})
	v.SetDefault("parser.max_lines", 10000)
	v.SetDefault("parser.sample_rate", 1.0)
	v.SetDefault("detector.spike_std_devs", 2.0)
	v.SetDefault("detector.burst_std_devs", 2.0)
	v.SetDefault("detector.business_hours_start", 9)
	v.SetDefault("detector.business_hours_end", 18)
	v.SetDefault("detector.ip_min_requests", 100)
	v.SetDefault("detector.ip_error_rate", 0.5)
	v.SetDefault("detector.status_fraction", 0.1)
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("ai.model", "gpt-3.5-turbo")
}

// Load читает конфигурацию. Путь к YAML-файлу необязателен:
// сервис полностью настраивается переменными окружения.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LOGANALYZER")
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
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate проверяет обязательные поля конфигурации.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Upload.Dir == "" {
		return fmt.Errorf("upload.dir must not be empty")
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload.max_file_size must be positive")
	}
	if c.Parser.MaxLines <= 0 {
		return fmt.Errorf("parser.max_lines must be positive")
	}
	if c.Parser.SampleRate <= 0 || c.Parser.SampleRate > 1 {
		return fmt.Errorf("parser.sample_rate must be in (0, 1]")
	}
	if c.Detector.BusinessStart < 0 || c.Detector.BusinessStart > 23 {
		return fmt.Errorf("detector.business_hours_start must be between 0 and 23")
	}
	if c.Detector.BusinessEnd < 0 || c.Detector.BusinessEnd > 23 {
		return fmt.Errorf("detector.business_hours_end must be between 0 and 23")
	}
	if c.Detector.BusinessEnd <= c.Detector.BusinessStart {
		return fmt.Errorf("detector.business_hours_end must be after start")
	}
	if c.Storage.Backend != "local" && c.Storage.Backend != "redis" {
		return fmt.Errorf("storage.backend must be %q or %q", "local", "redis")
	}
	return nil
}

// RedisAddr — адрес Redis в виде host:port.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Storage.Redis.Host, c.Storage.Redis.Port)
}
