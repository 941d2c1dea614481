package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации симулятора.
// Незаданные поля берутся из переменных окружения, затем из значений по умолчанию.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Maria      MariaConfig      `yaml:"maria"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Log        LogConfig        `yaml:"log"`
	// Materials путь к YAML таблице материалов, пустой означает встроенную
	Materials string `yaml:"materials"`
}

type SimulationConfig struct {
	TickRate   int     `yaml:"tick_rate"`
	WaterLevel int     `yaml:"water_level"`
	Seed       int64   `yaml:"seed"`
	Collisions *bool   `yaml:"collisions"`
	SinkMargin float64 `yaml:"sink_margin"`
	MaxBlocks  int     `yaml:"max_blocks"`
	// SaveEvery период автосохранения в тиках, 0 выключает
	SaveEvery int `yaml:"save_every_ticks"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MariaConfig struct {
	DSN string `yaml:"dsn"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`

	// Source имя узла в событиях изменений блоков
	Source       string `yaml:"source"`
	BlockBatch   int    `yaml:"block_batch"`
	BlockFlushMs int    `yaml:"block_flush_ms"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  bool   `yaml:"file"`

	// Components уровни отдельных компонентов: fleet: debug
	Components map[string]string `yaml:"components"`
}

// GetTickRate возвращает частоту тиков в секунду
func (s *SimulationConfig) GetTickRate() int {
	return getIntWithEnvFallback(s.TickRate, "SHIPS_TICK_RATE", 20)
}

// GetTickInterval возвращает длительность одного тика
func (s *SimulationConfig) GetTickInterval() time.Duration {
	return time.Second / time.Duration(s.GetTickRate())
}

// GetWaterLevel возвращает уровень моря
func (s *SimulationConfig) GetWaterLevel() int {
	return getIntWithEnvFallback(s.WaterLevel, "SHIPS_WATER_LEVEL", 64)
}

// GetMaxBlocks возвращает предельный размер спускаемого корабля
func (s *SimulationConfig) GetMaxBlocks() int {
	return getIntWithEnvFallback(s.MaxBlocks, "SHIPS_MAX_BLOCKS", 4096)
}

// CollisionsEnabled столкновения со статикой включены, если явно не выключены
func (s *SimulationConfig) CollisionsEnabled() bool {
	return s.Collisions == nil || *s.Collisions
}

// GetDir возвращает каталог BadgerDB
func (s *StorageConfig) GetDir() string {
	return getStringWithEnvFallback(s.Dir, "SHIPS_DATA_DIR", "data")
}

// GetAddr возвращает адрес Redis, пустой если Redis не используется
func (r *RedisConfig) GetAddr() string {
	return getStringWithEnvFallback(r.Addr, "SHIPS_REDIS_ADDR", "")
}

// GetDSN возвращает строку подключения MariaDB, пустую если база не используется
func (m *MariaConfig) GetDSN() string {
	return getStringWithEnvFallback(m.DSN, "SHIPS_MARIA_DSN", "")
}

// GetURL возвращает адрес NATS, пустой означает шину в памяти
func (e *EventBusConfig) GetURL() string {
	return getStringWithEnvFallback(e.URL, "SHIPS_NATS_URL", "")
}

// GetRetention возвращает время хранения событий в стриме
func (e *EventBusConfig) GetRetention() time.Duration {
	return time.Duration(getIntWithEnvFallback(e.Retention, "SHIPS_EVENT_RETENTION_HOURS", 24)) * time.Hour
}

// GetSource возвращает имя узла
func (e *EventBusConfig) GetSource() string {
	return getStringWithEnvFallback(e.Source, "SHIPS_NODE", "shipsim")
}

// GetBlockBatch возвращает лимит пакета изменений блоков
func (e *EventBusConfig) GetBlockBatch() int {
	return getIntWithEnvFallback(e.BlockBatch, "SHIPS_BLOCK_BATCH", 512)
}

// GetBlockFlush возвращает интервал отправки изменений блоков
func (e *EventBusConfig) GetBlockFlush() time.Duration {
	return time.Duration(getIntWithEnvFallback(e.BlockFlushMs, "SHIPS_BLOCK_FLUSH_MS", 250)) * time.Millisecond
}

// GetAddr возвращает адрес Prometheus эндпоинта, пустой выключает HTTP
func (m *MetricsConfig) GetAddr() string {
	return getStringWithEnvFallback(m.Addr, "SHIPS_METRICS_ADDR", ":2112")
}

// GetServiceName возвращает имя сервиса в трассах
func (t *TelemetryConfig) GetServiceName() string {
	return getStringWithEnvFallback(t.ServiceName, "OTEL_SERVICE_NAME", "voxel-ships")
}

// GetLevel возвращает уровень логирования
func (l *LogConfig) GetLevel() string {
	return getStringWithEnvFallback(l.Level, "SHIPS_LOG_LEVEL", "info")
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	if configValue > 0 {
		return configValue
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	return defaultValue
}

// getStringWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getStringWithEnvFallback(configValue, envVar, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultValue
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать путь из ENV SHIPS_CONFIG; если и он пуст,
// возвращает пустую конфигурацию, все значения берутся из fallback.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SHIPS_CONFIG")
		if path == "" {
			return &Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}
