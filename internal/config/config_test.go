package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "firesafe", cfg.Database.Database)
	assert.False(t, cfg.DatabaseEnabled)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.RedisEnabled)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, 4, cfg.Review.Workers)
	assert.Equal(t, 100, cfg.Sensor.HistoryCapacity)
	assert.Equal(t, "sensors/+/readings", cfg.Sensor.MQTTTopic)
	assert.False(t, cfg.Sensor.Simulation)
	assert.Equal(t, 3*time.Second, cfg.Sensor.SimulationInterval)

	assert.Equal(t, "firesafe:alerts:history", cfg.Alert.HistoryKey)
	assert.Equal(t, 20, cfg.Alert.HistoryCapacity)
	assert.Equal(t, 1500*time.Millisecond, cfg.Alert.DispatchDelay)
	assert.Empty(t, cfg.Alert.Endpoint)

	assert.Equal(t, 120, cfg.Series.Capacity)
	assert.Equal(t, time.Second, cfg.Series.Interval)
	assert.InDelta(t, 0.9, cfg.Series.Decay, 1e-9)
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("REVIEW_WORKERS", "8")
	t.Setenv("REVIEW_SEED", "42")
	t.Setenv("SENSOR_SIMULATION", "true")
	t.Setenv("SENSOR_SIMULATION_INTERVAL", "500ms")
	t.Setenv("ALERT_DISPATCH_DELAY", "0s")
	t.Setenv("CIVIL_DEFENSE_ENDPOINT", "https://cd.example.org")
	t.Setenv("SERIES_DECAY", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, cfg.DatabaseEnabled)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.True(t, cfg.RedisEnabled)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, 8, cfg.Review.Workers)
	assert.Equal(t, int64(42), cfg.Review.Seed)
	assert.True(t, cfg.Sensor.Simulation)
	assert.Equal(t, 500*time.Millisecond, cfg.Sensor.SimulationInterval)
	assert.Equal(t, time.Duration(0), cfg.Alert.DispatchDelay)
	assert.Equal(t, "https://cd.example.org", cfg.Alert.Endpoint)
	assert.InDelta(t, 0.5, cfg.Series.Decay, 1e-9)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	os.Clearenv()
	t.Setenv("REVIEW_WORKERS", "many")
	t.Setenv("SERIES_INTERVAL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Review.Workers)
	assert.Equal(t, time.Second, cfg.Series.Interval)
}

func TestLoad_RejectsOutOfRange(t *testing.T) {
	cases := map[string]string{
		"REVIEW_WORKERS":                "0",
		"SERIES_DECAY":                  "1.5",
		"SENSOR_HISTORY_CAPACITY":       "-1",
		"ALERT_HISTORY_CAPACITY":        "0",
		"SENSOR_SIMULATION_DANGER_RATE": "2",
		"ALERT_SIMULATED_FAILURE_RATE":  "-0.1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			os.Clearenv()
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "fire", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=fire sslmode=require", c.DSN())
}
