package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Game     GameConfig     `mapstructure:"game"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
	MatchTTL        time.Duration `mapstructure:"match_ttl"`
}

type GameConfig struct {
	MazesDir     string        `mapstructure:"mazes_dir"`
	DefaultMaze  string        `mapstructure:"default_maze"`
	TickMs       int           `mapstructure:"tick_ms"` // arena pacing
	MaxTicks     int           `mapstructure:"max_ticks"`
	EdibleTicks  int           `mapstructure:"edible_ticks"`
	LairTicks    int           `mapstructure:"lair_ticks"`
	Lives        int           `mapstructure:"lives"`
	MatchTimeout time.Duration `mapstructure:"match_timeout"`
	ArenaEnabled bool          `mapstructure:"arena_enabled"`
	ArenaPause   time.Duration `mapstructure:"arena_pause"`
	RankingEvery time.Duration `mapstructure:"ranking_every"` // leaderboard rebuild interval
}

type StrategyConfig struct {
	NearPillDistance int `mapstructure:"near_pill_distance"`
	FallbackDistance int `mapstructure:"fallback_distance"`
	Lookahead        int `mapstructure:"lookahead"`
}

type SecurityConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/matches.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("cache.match_ttl", "10m")
	v.SetDefault("game.mazes_dir", "./data/mazes")
	v.SetDefault("game.default_maze", "arcade")
	v.SetDefault("game.tick_ms", 100)
	v.SetDefault("game.max_ticks", 2000)
	v.SetDefault("game.edible_ticks", 40)
	v.SetDefault("game.lair_ticks", 10)
	v.SetDefault("game.lives", 3)
	v.SetDefault("game.match_timeout", "10s")
	v.SetDefault("game.arena_enabled", true)
	v.SetDefault("game.arena_pause", "3s")
	v.SetDefault("game.ranking_every", "5m")
	v.SetDefault("strategy.near_pill_distance", 50)
	v.SetDefault("strategy.fallback_distance", 10)
	v.SetDefault("strategy.lookahead", 4)
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
