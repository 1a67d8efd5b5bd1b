package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	JWTSecret       string
	JWTExpiration   time.Duration
	EditTokenTTL    time.Duration
	DataDir         string
	UploadDir       string
	MaxUploadSizeMB int64

	MongoURI string
	MongoDB  string

	FirebaseProjectID       string
	FirebaseCredentialsJSON string

	// Reminder worker.
	ReminderSchedule string
	SendGridAPIKey   string
	ReminderFrom     string
	ReminderTo       string
}

func Load() *Config {
	// Best-effort; real env vars win over .env contents.
	_ = godotenv.Load()

	return &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTExpiration:   24 * time.Hour,
		EditTokenTTL:    30 * 24 * time.Hour,
		DataDir:         getEnv("DATA_DIR", "./data"),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSizeMB: getEnvInt64("MAX_UPLOAD_SIZE_MB", 10),

		MongoURI: getEnv("MONGO_URI", ""),
		MongoDB:  getEnv("MONGO_DB", "lulus"),

		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),

		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "0 9 * * *"),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		ReminderFrom:     getEnv("REMINDER_FROM_EMAIL", ""),
		ReminderTo:       getEnv("REMINDER_TO_EMAIL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
