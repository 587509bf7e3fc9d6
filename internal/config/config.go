package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Cron   CronConfig   `mapstructure:"cron"`

	Reputation ReputationConfig `mapstructure:"reputation"`
	Abuse      AbuseConfig      `mapstructure:"abuse"`
	Reward     RewardConfig     `mapstructure:"reward"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// CacheConfig selects the rate-limit denial fast path.
// Backend is one of "none", "memory", "redis".
type CacheConfig struct {
	Backend  string `mapstructure:"backend"`
	RedisURL string `mapstructure:"redis_url"`
}

type CronConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	MetricsSweep      string `mapstructure:"metrics_sweep"`
	ActivityRetention string `mapstructure:"activity_retention"`
}

type ReputationConfig struct {
	StaleAfter     time.Duration `mapstructure:"stale_after"`
	SweepBatchSize int           `mapstructure:"sweep_batch_size"`
}

type AbuseConfig struct {
	SharedIPMinWallets int `mapstructure:"shared_ip_min_wallets"`
	SharedIPPenalty    int `mapstructure:"shared_ip_penalty"`

	BurstMaxAccountAge time.Duration `mapstructure:"burst_max_account_age"`
	BurstMinPosts      int           `mapstructure:"burst_min_posts"`
	BurstPenalty       int           `mapstructure:"burst_penalty"`

	PrefixLength      int `mapstructure:"prefix_length"`
	ClusterMinWallets int `mapstructure:"cluster_min_wallets"`
	ClusterPenalty    int `mapstructure:"cluster_penalty"`

	MalformedPenalty int `mapstructure:"malformed_penalty"`

	CadenceWindow  time.Duration `mapstructure:"cadence_window"`
	CadencePenalty int           `mapstructure:"cadence_penalty"`

	BlockThreshold     int `mapstructure:"block_threshold"`
	WarnThreshold      int `mapstructure:"warn_threshold"`
	RateLimitThreshold int `mapstructure:"rate_limit_threshold"`

	PostHourlyLimit    int `mapstructure:"post_hourly_limit"`
	PostDailyLimit     int `mapstructure:"post_daily_limit"`
	DefaultHourlyLimit int `mapstructure:"default_hourly_limit"`
	DefaultDailyLimit  int `mapstructure:"default_daily_limit"`
}

type RewardConfig struct {
	ReferralBase  float64 `mapstructure:"referral_base"`
	ReferralMax   float64 `mapstructure:"referral_max"`
	ReferralFloor float64 `mapstructure:"referral_floor"`

	BadgeBase float64 `mapstructure:"badge_base"`
	BadgeMax  float64 `mapstructure:"badge_max"`

	TaskBase float64 `mapstructure:"task_base"`
	TaskMax  float64 `mapstructure:"task_max"`

	DailyPostLimit     int `mapstructure:"daily_post_limit"`
	DailyTradeLimit    int `mapstructure:"daily_trade_limit"`
	DailyReferralLimit int `mapstructure:"daily_referral_limit"`

	DailyVolumeCap float64 `mapstructure:"daily_volume_cap"`
	DailyCountCap  float64 `mapstructure:"daily_count_cap"`
	DailyRewardCap float64 `mapstructure:"daily_reward_cap"`

	ActivityDampening float64 `mapstructure:"activity_dampening"`

	ActivityRetention time.Duration `mapstructure:"activity_retention"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FAIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.metrics_sweep", "@every 10m")
	v.SetDefault("cron.activity_retention", "@every 6h")

	v.SetDefault("reputation.stale_after", "1h")
	v.SetDefault("reputation.sweep_batch_size", 50)

	v.SetDefault("abuse.shared_ip_min_wallets", 3)
	v.SetDefault("abuse.shared_ip_penalty", 30)
	v.SetDefault("abuse.burst_max_account_age", "1h")
	v.SetDefault("abuse.burst_min_posts", 3)
	v.SetDefault("abuse.burst_penalty", 25)
	v.SetDefault("abuse.prefix_length", 10)
	v.SetDefault("abuse.cluster_min_wallets", 3)
	v.SetDefault("abuse.cluster_penalty", 20)
	v.SetDefault("abuse.malformed_penalty", 15)
	v.SetDefault("abuse.cadence_window", "5m")
	v.SetDefault("abuse.cadence_penalty", 25)
	v.SetDefault("abuse.block_threshold", 70)
	v.SetDefault("abuse.warn_threshold", 50)
	v.SetDefault("abuse.rate_limit_threshold", 30)
	v.SetDefault("abuse.post_hourly_limit", 5)
	v.SetDefault("abuse.post_daily_limit", 20)
	v.SetDefault("abuse.default_hourly_limit", 20)
	v.SetDefault("abuse.default_daily_limit", 100)

	v.SetDefault("reward.referral_base", 10)
	v.SetDefault("reward.referral_max", 50)
	v.SetDefault("reward.referral_floor", 5)
	v.SetDefault("reward.badge_base", 5)
	v.SetDefault("reward.badge_max", 25)
	v.SetDefault("reward.task_base", 20)
	v.SetDefault("reward.task_max", 100)
	v.SetDefault("reward.daily_post_limit", 10)
	v.SetDefault("reward.daily_trade_limit", 20)
	v.SetDefault("reward.daily_referral_limit", 5)
	v.SetDefault("reward.daily_volume_cap", 1000000)
	v.SetDefault("reward.daily_count_cap", 1000)
	v.SetDefault("reward.daily_reward_cap", 10000)
	v.SetDefault("reward.activity_dampening", 0.3)
	v.SetDefault("reward.activity_retention", "720h")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
