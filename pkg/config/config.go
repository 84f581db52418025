package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Uploads     UploadConfig
	HuggingFace HuggingFaceConfig
	OCR         OCRConfig
	Processor   ProcessorConfig
	Logger      LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

type HuggingFaceConfig struct {
	APIKey   string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

type OCRConfig struct {
	Languages string
}

type ProcessorConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work for Docker/K8s.
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	maxUpload, _ := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE_BYTES", "5242880"), 10, 64)
	hfTimeout, _ := strconv.Atoi(getEnv("HF_TIMEOUT_SECONDS", "30"))
	workers, _ := strconv.Atoi(getEnv("PROCESSOR_WORKERS", "4"))
	queueSize, _ := strconv.Atoi(getEnv("PROCESSOR_QUEUE_SIZE", "64"))
	jobTimeout, _ := strconv.Atoi(getEnv("PROCESSOR_JOB_TIMEOUT_SECONDS", "120"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "spendscan"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Uploads: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "uploads"),
			MaxSizeBytes: maxUpload,
		},
		HuggingFace: HuggingFaceConfig{
			APIKey:   getEnv("HF_API_KEY", ""),
			Endpoint: getEnv("HF_ENDPOINT", "https://api-inference.huggingface.co/models"),
			Model:    getEnv("HF_NER_MODEL", "dbmdz/bert-large-cased-finetuned-conll03-english"),
			Timeout:  time.Duration(hfTimeout) * time.Second,
		},
		OCR: OCRConfig{
			Languages: getEnv("OCR_LANGUAGES", "eng"),
		},
		Processor: ProcessorConfig{
			Workers:    workers,
			QueueSize:  queueSize,
			JobTimeout: time.Duration(jobTimeout) * time.Second,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
