package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string
	MySQLDSN    string
	AutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	AccessSecret string

	FeedCacheTTL time.Duration
	PageSize     int

	OutboxInterval time.Duration
	OutboxBatch    int

	ReconcileInterval time.Duration
}

// Load 从环境变量读取配置，非法值回退到默认值
func Load() *Config {
	return &Config{
		Addr:           getEnv("APP_ADDR", ":8080"),
		MySQLDSN:       getEnv("MYSQL_DSN", "user:password@tcp(127.0.0.1:3306)/feed?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true"),
		AutoMigrate:    getBool("AUTO_MIGRATE", true),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getInt("REDIS_DB", 0),
		KafkaBrokers:   getList("KAFKA_BROKERS"),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "feed.events"),
		AccessSecret:   getEnv("JWT_ACCESS_SECRET", "secret-key"),
		FeedCacheTTL:   getDuration("FEED_CACHE_TTL", 5*time.Second),
		PageSize:       getInt("FEED_PAGE_SIZE", 10),
		OutboxInterval: getDuration("OUTBOX_INTERVAL", time.Second),
		OutboxBatch:    getInt("OUTBOX_BATCH", 200),

		ReconcileInterval: getDuration("RECONCILE_INTERVAL", 5*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
