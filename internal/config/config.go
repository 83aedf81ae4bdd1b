package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig PostgreSQL 连接
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// DSN lib/pq 连接字符串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis 连接
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT 连接
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Config 引擎配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	DatabaseEnabled bool // 关闭时使用内存仓库
	RedisEnabled    bool // 关闭时通知历史只保存在内存

	HTTP struct {
		Addr string
	}

	Auth struct {
		JWTSecret string
		Issuer    string
	}

	Log struct {
		Level  string
		Format string
	}

	Review struct {
		Workers int   // 并发评估图纸的 worker 数
		Seed    int64 // 模拟检查的随机种子
	}

	Sensor struct {
		HistoryCapacity    int
		MQTTTopic          string
		Simulation         bool
		SimulationInterval time.Duration
		SimulationSeed     int64
		DangerRate         float64
		StreamName         string
		StreamMaxLen       int64
	}

	Alert struct {
		ProjectName     string
		HistoryKey      string
		HistoryCapacity int
		DispatchDelay   time.Duration
		// 为空时使用模拟通知
		Endpoint    string
		Path        string
		APIKey      string
		Timeout     time.Duration
		FailureRate float64 // 模拟通知的失败率
	}

	Series struct {
		Capacity int
		Interval time.Duration
		Decay    float64
	}
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "firesafe")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)
	cfg.DatabaseEnabled = getEnvBool("DB_ENABLED", false)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.RedisEnabled = getEnvBool("REDIS_ENABLED", false)

	cfg.MQTT.Enabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "firesafe-engine")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 1))

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.Auth.Issuer = getEnv("JWT_ISSUER", "firesafe-engine")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Review.Workers = getEnvInt("REVIEW_WORKERS", 4)
	cfg.Review.Seed = getEnvInt64("REVIEW_SEED", time.Now().UnixNano())

	cfg.Sensor.HistoryCapacity = getEnvInt("SENSOR_HISTORY_CAPACITY", 100)
	cfg.Sensor.MQTTTopic = getEnv("SENSOR_MQTT_TOPIC", "sensors/+/readings")
	cfg.Sensor.Simulation = getEnvBool("SENSOR_SIMULATION", false)
	cfg.Sensor.SimulationInterval = getEnvDuration("SENSOR_SIMULATION_INTERVAL", 3*time.Second)
	cfg.Sensor.SimulationSeed = getEnvInt64("SENSOR_SIMULATION_SEED", time.Now().UnixNano())
	cfg.Sensor.DangerRate = getEnvFloat("SENSOR_SIMULATION_DANGER_RATE", 0.05)
	cfg.Sensor.StreamName = getEnv("SENSOR_STREAM", "sensor:readings:stream")
	cfg.Sensor.StreamMaxLen = getEnvInt64("SENSOR_STREAM_MAXLEN", 10000)

	cfg.Alert.ProjectName = getEnv("ALERT_PROJECT_NAME", "")
	cfg.Alert.HistoryKey = getEnv("ALERT_HISTORY_KEY", "firesafe:alerts:history")
	cfg.Alert.HistoryCapacity = getEnvInt("ALERT_HISTORY_CAPACITY", 20)
	cfg.Alert.DispatchDelay = getEnvDuration("ALERT_DISPATCH_DELAY", 1500*time.Millisecond)
	cfg.Alert.Endpoint = getEnv("CIVIL_DEFENSE_ENDPOINT", "")
	cfg.Alert.Path = getEnv("CIVIL_DEFENSE_PATH", "/api/v1/alerts")
	cfg.Alert.APIKey = getEnv("CIVIL_DEFENSE_API_KEY", "")
	cfg.Alert.Timeout = getEnvDuration("CIVIL_DEFENSE_TIMEOUT", 10*time.Second)
	cfg.Alert.FailureRate = getEnvFloat("ALERT_SIMULATED_FAILURE_RATE", 0)

	cfg.Series.Capacity = getEnvInt("SERIES_CAPACITY", 120)
	cfg.Series.Interval = getEnvDuration("SERIES_INTERVAL", time.Second)
	cfg.Series.Decay = getEnvFloat("SERIES_DECAY", 0.9)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	if c.Review.Workers <= 0 {
		return fmt.Errorf("REVIEW_WORKERS must be positive, got %d", c.Review.Workers)
	}
	if c.Sensor.HistoryCapacity <= 0 {
		return fmt.Errorf("SENSOR_HISTORY_CAPACITY must be positive, got %d", c.Sensor.HistoryCapacity)
	}
	if c.Alert.HistoryCapacity <= 0 {
		return fmt.Errorf("ALERT_HISTORY_CAPACITY must be positive, got %d", c.Alert.HistoryCapacity)
	}
	if c.Series.Capacity <= 0 {
		return fmt.Errorf("SERIES_CAPACITY must be positive, got %d", c.Series.Capacity)
	}
	if c.Series.Decay <= 0 || c.Series.Decay >= 1 {
		return fmt.Errorf("SERIES_DECAY must be in (0,1), got %g", c.Series.Decay)
	}
	if c.Series.Interval <= 0 || c.Sensor.SimulationInterval <= 0 {
		return fmt.Errorf("intervals must be positive")
	}
	if c.Sensor.DangerRate < 0 || c.Sensor.DangerRate > 1 {
		return fmt.Errorf("SENSOR_SIMULATION_DANGER_RATE must be in [0,1], got %g", c.Sensor.DangerRate)
	}
	if c.Alert.FailureRate < 0 || c.Alert.FailureRate > 1 {
		return fmt.Errorf("ALERT_SIMULATED_FAILURE_RATE must be in [0,1], got %g", c.Alert.FailureRate)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
