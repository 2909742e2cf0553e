package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Firestore FirestoreConfig
	Firebase  FirebaseConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type StoreConfig struct {
	// Driver selects the persistence backend: "firestore" or "memory".
	Driver string
}

type FirestoreConfig struct {
	ProjectID       string
	Database        string
	CredentialsPath string
	// Emulator support for integration testing; the SDK picks this up
	// from FIRESTORE_EMULATOR_HOST.
	EmulatorHost string
}

type FirebaseConfig struct {
	CredentialsPath string // enables Firebase ID-token exchange when set
}

type JWTConfig struct {
	SigningKey string
	Issuer     string
	TTLHours   int
}

type AuthConfig struct {
	ResetTokenTTLMinutes int // password reset token lifetime (default: 60)
}

type AdminConfig struct {
	// Seed account ensured at startup (skipped when email is empty).
	Email    string
	Password string
}

// Load returns application configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", "firestore"),
		},
		Firestore: FirestoreConfig{
			ProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
			Database:        getEnv("FIRESTORE_DATABASE", "(default)"),
			CredentialsPath: getEnv("FIRESTORE_CREDENTIALS_PATH", ""),
			EmulatorHost:    getEnv("FIRESTORE_EMULATOR_HOST", ""),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		JWT: JWTConfig{
			SigningKey: getEnv("JWT_SIGNING_KEY", ""),
			Issuer:     getEnv("JWT_ISSUER", "foodbridge"),
			TTLHours:   getEnvInt("JWT_TTL_HOURS", 24),
		},
		Auth: AuthConfig{
			ResetTokenTTLMinutes: getEnvInt("RESET_TOKEN_TTL_MINUTES", 60),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
