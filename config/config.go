package config

import (
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Game     GameConfig     `mapstructure:"game"`
	Monster  MonsterConfig  `mapstructure:"monster"`
	Noise    NoiseConfig    `mapstructure:"noise"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port     int      `mapstructure:"port"`
	Debug    bool     `mapstructure:"debug"`
	AdminKey string   `mapstructure:"admin_key"`
	AdminIPs []string `mapstructure:"admin_ips"` // empty allows any IP holding the admin key
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
}

type GameConfig struct {
	TickMs           int           `mapstructure:"tick_ms"`
	Layouts          []string      `mapstructure:"layouts"`
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
	SnapshotTTL      time.Duration `mapstructure:"snapshot_ttl"`
	TransitionFeed   int           `mapstructure:"transition_feed"` // recent transitions kept per room
	JournalBatch     int           `mapstructure:"journal_batch"`
	JournalFlush     time.Duration `mapstructure:"journal_flush"`
	// MaxSoundRadius caps the hearable radius of reported sounds; 0 disables the cap.
	MaxSoundRadius float64 `mapstructure:"max_sound_radius"`
}

// TickInterval returns the room tick period.
func (g GameConfig) TickInterval() time.Duration {
	return time.Duration(g.TickMs) * time.Millisecond
}

// MonsterConfig holds the default tunables and named per-monster overrides.
type MonsterConfig struct {
	ai.Tunables `mapstructure:",squash"`
	Profiles    map[string]ai.Tunables `mapstructure:"profiles"`
}

// Resolve returns the tunables for a named profile. Fields a profile leaves at
// zero take the default value; an unknown or empty name yields the defaults.
func (m MonsterConfig) Resolve(profile string) ai.Tunables {
	t, ok := m.Profiles[profile]
	if profile == "" || !ok {
		return m.Tunables
	}
	d := m.Tunables
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&t.WanderRadius, d.WanderRadius)
	fill(&t.WanderBiasRadius, d.WanderBiasRadius)
	fill(&t.SearchRadius, d.SearchRadius)
	fill(&t.WalkSpeed, d.WalkSpeed)
	fill(&t.RunSpeed, d.RunSpeed)
	fill(&t.PursueInsteadOfSearchRadius, d.PursueInsteadOfSearchRadius)
	fill(&t.SearchDuration, d.SearchDuration)
	return t
}

// NoiseConfig tunes the player's footstep noise.
type NoiseConfig struct {
	SneakRadius  float64       `mapstructure:"sneak_radius"`
	WalkRadius   float64       `mapstructure:"walk_radius"`
	SprintRadius float64       `mapstructure:"sprint_radius"`
	Debounce     time.Duration `mapstructure:"debounce"`
	GoToPlayer   time.Duration `mapstructure:"go_to_player"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// AllowedOrigins lists the WebSocket/SSE origins that are permitted.
	// An empty slice allows all origins (useful for local development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/journal.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("game.tick_ms", 50)
	v.SetDefault("game.layouts", []string{"./layouts/basement.yaml"})
	v.SetDefault("game.snapshot_interval", "500ms")
	v.SetDefault("game.snapshot_ttl", "10s")
	v.SetDefault("game.transition_feed", 100)
	v.SetDefault("game.journal_batch", 64)
	v.SetDefault("game.journal_flush", "2s")
	v.SetDefault("game.max_sound_radius", 5000)

	d := ai.DefaultTunables()
	v.SetDefault("monster.desired_wander_radius", d.WanderRadius)
	v.SetDefault("monster.desired_wander_bias_radius", d.WanderBiasRadius)
	v.SetDefault("monster.desired_search_radius", d.SearchRadius)
	v.SetDefault("monster.desired_walk_speed", d.WalkSpeed)
	v.SetDefault("monster.desired_run_speed", d.RunSpeed)
	v.SetDefault("monster.desired_pursue_instead_of_search_radius", d.PursueInsteadOfSearchRadius)
	v.SetDefault("monster.desired_search_duration", d.SearchDuration)

	v.SetDefault("noise.sneak_radius", 250)
	v.SetDefault("noise.walk_radius", 1000)
	v.SetDefault("noise.sprint_radius", 2000)
	v.SetDefault("noise.debounce", "100ms")
	v.SetDefault("noise.go_to_player", "1500ms")

	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
}
