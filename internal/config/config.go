// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Значения по умолчанию
const (
	DefaultAssetsDir        = "~/Music/melody"
	DefaultLogFile          = "~/.melody/melody.log"
	DefaultLogLevel         = "info"
	DefaultVolume           = 1.0
	DefaultProbeConcurrency = 4
	DefaultProgressInterval = 250 * time.Millisecond
)

// Config структура для хранения конфигурации приложения
type Config struct {
	AssetsDir        string        `yaml:"assets_dir"`      // Корень статических ассетов (songs/, covers/)
	AssetsBaseURL    string        `yaml:"assets_base_url"` // Если задан, ассеты читаются по HTTP
	ManifestPath     string        `yaml:"manifest_path"`   // YAML со списком предзагруженных треков
	UploadDir        string        `yaml:"upload_dir"`      // Каталог-"входящие" для загрузки файлов
	Volume           float64       `yaml:"volume"`
	ProbeConcurrency int           `yaml:"probe_concurrency"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	LogLevel         string        `yaml:"log_level"`
	LogFile          string        `yaml:"log_file"`

	AwsBucketName string `yaml:"aws_bucket_name"`
	AwsAccessKey  string `yaml:"aws_access_key"`
	AwsSecretKey  string `yaml:"aws_secret_key"`
	AwsRegion     string `yaml:"aws_region"`
	AwsEndpoint   string `yaml:"aws_endpoint"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		AssetsDir:        DefaultAssetsDir,
		Volume:           DefaultVolume,
		ProbeConcurrency: DefaultProbeConcurrency,
		ProgressInterval: DefaultProgressInterval,
		LogLevel:         DefaultLogLevel,
		LogFile:          DefaultLogFile,
	}
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл не считается ошибкой: используются значения по умолчанию.
// Поверх файла применяются переменные окружения MELODY_* (в том числе из .env).
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	config := Default()

	path := ExpandHome(filePath, home)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
	}

	// .env не переопределяет уже заданные переменные окружения
	_ = godotenv.Load()
	applyEnv(config)

	config.applyDefaults()

	// Раскрываем тильду в путях
	config.AssetsDir = ExpandHome(config.AssetsDir, home)
	config.ManifestPath = ExpandHome(config.ManifestPath, home)
	config.UploadDir = ExpandHome(config.UploadDir, home)
	config.LogFile = ExpandHome(config.LogFile, home)

	return config, nil
}

// HasBucket сообщает, настроено ли S3-хранилище для ассетов
func (c *Config) HasBucket() bool {
	return c.AwsBucketName != ""
}

// applyDefaults заполняет пустые и некорректные значения
func (c *Config) applyDefaults() {
	if c.AssetsDir == "" {
		c.AssetsDir = DefaultAssetsDir
	}
	if c.Volume < 0 || c.Volume > 1 {
		c.Volume = DefaultVolume
	}
	if c.ProbeConcurrency <= 0 {
		c.ProbeConcurrency = DefaultProbeConcurrency
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = DefaultProgressInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
}

// applyEnv переопределяет значения из переменных окружения
func applyEnv(c *Config) {
	envString("MELODY_ASSETS_DIR", &c.AssetsDir)
	envString("MELODY_ASSETS_BASE_URL", &c.AssetsBaseURL)
	envString("MELODY_MANIFEST_PATH", &c.ManifestPath)
	envString("MELODY_UPLOAD_DIR", &c.UploadDir)
	envString("MELODY_LOG_LEVEL", &c.LogLevel)
	envString("MELODY_LOG_FILE", &c.LogFile)
	envString("MELODY_AWS_BUCKET_NAME", &c.AwsBucketName)
	envString("MELODY_AWS_ACCESS_KEY", &c.AwsAccessKey)
	envString("MELODY_AWS_SECRET_KEY", &c.AwsSecretKey)
	envString("MELODY_AWS_REGION", &c.AwsRegion)
	envString("MELODY_AWS_ENDPOINT", &c.AwsEndpoint)

	if v, ok := os.LookupEnv("MELODY_VOLUME"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Volume = f
		}
	}
	if v, ok := os.LookupEnv("MELODY_PROBE_CONCURRENCY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.ProbeConcurrency = n
		}
	}
	if v, ok := os.LookupEnv("MELODY_PROGRESS_INTERVAL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.ProgressInterval = d
		}
	}
}

func envString(key string, target *string) {
	if v, ok := os.LookupEnv(key); ok {
		*target = v
	}
}

// ExpandHome заменяет ведущую тильду на домашний каталог
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return home + path[1:]
	}
	return path
}
