package config

import (
	"time"
)

type Config struct {
	Server        ServerConfig
	Elasticsearch ElasticsearchConfig
	Redis         RedisConfig
	Cache         CacheConfig
	Geo           GeoConfig
	Tracking      TrackingConfig
	Log           LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	IndexListings string   `mapstructure:"index_listings"`

	// IDFields is the ordered list of source fields tried when resolving
	// a row's canonical entity identifier. The upstream materialized view
	// has drifted through several schema versions, so the exact field
	// name varies per row.
	IDFields []string `mapstructure:"id_fields"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Prefix   string        `mapstructure:"prefix"`
	FacetTTL time.Duration `mapstructure:"facet_ttl"`
}

type GeoConfig struct {
	ReverseURL string        `mapstructure:"reverse_url"`
	IPURL      string        `mapstructure:"ip_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type TrackingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Enabled  bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8095)
	v.SetDefault("elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.index_listings", "directory-listings")
	v.SetDefault("elasticsearch.id_fields", []string{"entity_id", "store_id", "listing_id", "id"})
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.prefix", "dir")
	v.SetDefault("cache.facet_ttl", "24h")
	v.SetDefault("geo.reverse_url", "https://nominatim.openstreetmap.org/reverse")
	v.SetDefault("geo.ip_url", "http://ip-api.com/json")
	v.SetDefault("geo.timeout", "10s")
	v.SetDefault("tracking.endpoint", "")
	v.SetDefault("tracking.enabled", true)
	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("elasticsearch.addresses", "ES_ADDRESSES")
	v.BindEnv("elasticsearch.index_listings", "ES_INDEX_LISTINGS")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("geo.ip_url", "GEO_IP_URL")
	v.BindEnv("tracking.endpoint", "TRACKING_ENDPOINT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
