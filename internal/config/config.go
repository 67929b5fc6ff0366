package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type CropMonitorConfig struct {
	Port          string
	PostgresCfg   PostgresConfig
	RedisCfg      RedisConfig
	MinioCfg      MinioConfig
	WeatherCfg    WeatherConfig
	ClassifierCfg ClassifierConfig
	HeartbeatCfg  HeartbeatConfig
	AlertCfg      AlertConfig
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    string
}

type WeatherConfig struct {
	APIKey string
	// Fallback ambient values used when coordinates are absent or the
	// provider is unreachable.
	DefaultTemperature float64
	DefaultHumidity    float64
	CacheTTL           time.Duration
}

type ClassifierConfig struct {
	Endpoint   string
	ScalerPath string
	// Confidence above which a non-healthy prediction becomes critical.
	CriticalConfidence float64
}

type HeartbeatConfig struct {
	Interval         time.Duration
	OfflineThreshold time.Duration
}

// ThresholdPair holds per-quantity alert cutoffs; critical < low.
type ThresholdPair struct {
	Critical float64
	Low      float64
}

// AlertConfig carries the injectable reading thresholds.
type AlertConfig struct {
	Nitrogen     ThresholdPair
	Phosphorus   ThresholdPair
	Potassium    ThresholdPair
	SoilMoisture ThresholdPair
}

func New() *CropMonitorConfig {
	if err := godotenv.Load(); err != nil {
		log.Printf("[cfg] no .env file loaded: %v", err)
	}

	return &CropMonitorConfig{
		Port: getEnvOrDefault("PORT", "8085"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "crop_monitor"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnvOrDefault("MINIO_ENDPOINT", "http://localhost:9000"),
			MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:  getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:    getEnvOrDefault("MINIO_SECURE", "false"),
		},
		WeatherCfg: WeatherConfig{
			APIKey:             getEnvOrDefault("OPENWEATHERMAP_API_KEY", ""),
			DefaultTemperature: getEnvFloat("WEATHER_DEFAULT_TEMP", 25.0),
			DefaultHumidity:    getEnvFloat("WEATHER_DEFAULT_HUMIDITY", 60.0),
			CacheTTL:           getEnvDuration("WEATHER_CACHE_TTL", 10*time.Minute),
		},
		ClassifierCfg: ClassifierConfig{
			Endpoint:           getEnvOrDefault("MODEL_ENDPOINT", "http://localhost:8501"),
			ScalerPath:         getEnvOrDefault("SCALER_PATH", "scaler.json"),
			CriticalConfidence: getEnvFloat("ALERT_CONFIDENCE_CUTOFF", 80.0),
		},
		HeartbeatCfg: HeartbeatConfig{
			Interval:         getEnvDuration("HEARTBEAT_INTERVAL", 60*time.Second),
			OfflineThreshold: getEnvDuration("OFFLINE_THRESHOLD", 120*time.Second),
		},
		AlertCfg: AlertConfig{
			Nitrogen:     ThresholdPair{Critical: getEnvFloat("ALERT_N_CRITICAL", 15), Low: getEnvFloat("ALERT_N_LOW", 20)},
			Phosphorus:   ThresholdPair{Critical: getEnvFloat("ALERT_P_CRITICAL", 10), Low: getEnvFloat("ALERT_P_LOW", 15)},
			Potassium:    ThresholdPair{Critical: getEnvFloat("ALERT_K_CRITICAL", 15), Low: getEnvFloat("ALERT_K_LOW", 20)},
			SoilMoisture: ThresholdPair{Critical: getEnvFloat("ALERT_MOISTURE_CRITICAL", 10), Low: getEnvFloat("ALERT_MOISTURE_LOW", 15)},
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("[cfg] invalid float for %s, using default %v", key, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("[cfg] invalid duration for %s, using default %v", key, defaultValue)
	}
	return defaultValue
}
