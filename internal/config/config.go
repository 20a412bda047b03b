package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port       string
	GinMode    string
	DBDriver   string // "postgres" or "mysql"
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	JWTExpiry  time.Duration
	UploadDir  string
}

func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "taskuser")
	v.SetDefault("DB_PASSWORD", "taskpassword")
	v.SetDefault("DB_NAME", "task_tracker")
	v.SetDefault("JWT_SECRET", "default-secret-key-change-me")
	v.SetDefault("JWT_EXPIRES_IN", "24h")
	v.SetDefault("UPLOAD_DIR", "uploads")

	return &Config{
		Port:       v.GetString("PORT"),
		GinMode:    v.GetString("GIN_MODE"),
		DBDriver:   v.GetString("DB_DRIVER"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		JWTSecret:  v.GetString("JWT_SECRET"),
		JWTExpiry:  v.GetDuration("JWT_EXPIRES_IN"),
		UploadDir:  v.GetString("UPLOAD_DIR"),
	}
}
