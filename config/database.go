package config

import "time"

// DBConfig configures the postgres session store (SESSION_STORE=postgres).
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"helix"`
	Password string `env:"PASSWORD" envDefault:"helix"`
	Name     string `env:"NAME"     envDefault:"helix"`
	// SSLMode is passed through to pgx; use "require" outside local development.
	SSLMode string `env:"SSL_MODE" envDefault:"disable"`

	// A session agent holds one slot row at a time, so the pool stays small.
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"     envDefault:"4"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"  envDefault:"5m"`

	// RunMigrationsOnStart migrates session_slots when the postgres store is opened.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// Sanitize clamps the pool settings.
func (c *DBConfig) Sanitize() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 4
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
}

// RedisConfig configures the redis session store (SESSION_STORE=redis). URI accepts
// host:port or a redis:// URL; sentinel and cluster modes use their node lists instead.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"`
	DB                 int      `env:"DB"                   envDefault:"0"`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"`
}
