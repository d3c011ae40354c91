package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all process configuration, loaded once at startup.
type Config struct {
	ServerPort int
	Database   DatabaseConfig
	Secrets    SecretsConfig
	Storage    StorageConfig
	Queue      QueueConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// SecretsConfig configures the Google Secret Manager bootstrap.
// ProjectID may be empty, in which case every secret must be supplied
// through its environment variable instead.
type SecretsConfig struct {
	ProjectID       string
	CredentialsFile string
}

// StorageConfig selects and configures the upload object-storage backend.
// Backend is one of "gcs", "minio" or "" (uploads disabled).
type StorageConfig struct {
	Backend string
	GCS     GCSConfig
	Minio   MinioConfig
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// QueueConfig selects and configures the conversion-task broker.
// Backend is one of "pubsub", "rabbitmq" or "" (task publishing disabled).
type QueueConfig struct {
	Backend   string
	TaskTopic string
	PubSub    PubSubConfig
	RabbitMQ  RabbitMQConfig
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "imago3d"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "imago3d_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	secretsConfig := SecretsConfig{
		ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT", getEnv("PROJECT_ID", "")),
		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
	}

	storageConfig := StorageConfig{
		Backend: strings.ToLower(getEnv("STORAGE_BACKEND", "")),
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET_NAME", ""),
			ProjectID:       secretsConfig.ProjectID,
			CredentialsFile: secretsConfig.CredentialsFile,
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "imago3d-images"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}

	queueConfig := QueueConfig{
		Backend:   strings.ToLower(getEnv("MQ_BACKEND", "")),
		TaskTopic: getEnv("MQ_TASK_TOPIC", "conversion-tasks"),
		PubSub: PubSubConfig{
			ProjectID:          secretsConfig.ProjectID,
			CredentialsFile:    secretsConfig.CredentialsFile,
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTODELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 0),
		},
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database:   dbConfig,
		Secrets:    secretsConfig,
		Storage:    storageConfig,
		Queue:      queueConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}
