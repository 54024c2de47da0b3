package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duration aceita valores legíveis no YAML ("250ms", "10s", "2m").
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config é a configuração declarativa do gateway. O arquivo YAML é a única
// fonte de montagem dos filtros: quem opera o gateway descreve a política e
// o binário constrói o pipeline a partir dela.
type Config struct {
	ListenAddr  string `yaml:"listen_addr" default:":8080" validate:"required"`
	UpstreamURL string `yaml:"upstream_url" validate:"required,url"`

	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	} `yaml:"log"`

	Throttle struct {
		Enabled bool `yaml:"enabled" default:"true"`

		// Requests por Window definem o orçamento de cada chave
		// (janela deslizante).
		Requests int      `yaml:"requests" default:"100" validate:"gt=0"`
		Window   Duration `yaml:"window" default:"1s" validate:"gt=0"`

		EvictionGrace Duration `yaml:"eviction_grace" default:"3s" validate:"gte=0"`
		SweepEvery    Duration `yaml:"sweep_every" default:"2m" validate:"gte=0"`
		AddHeaders    bool     `yaml:"add_headers"`

		Key struct {
			// global: um único bucket para todo mundo
			// ip: um bucket por IP de cliente
			// header: um bucket por valor do header configurado
			Source             string `yaml:"source" default:"ip" validate:"oneof=global ip header"`
			Header             string `yaml:"header" validate:"required_if=Source header"`
			TrustXForwardedFor bool   `yaml:"trust_x_forwarded_for"`
		} `yaml:"key"`
	} `yaml:"throttle"`

	InFlight struct {
		Max            int      `yaml:"max" default:"100" validate:"gte=0"`
		AcquireTimeout Duration `yaml:"acquire_timeout" validate:"gte=0"`
	} `yaml:"in_flight"`

	Stats struct {
		Backend string `yaml:"backend" default:"none" validate:"oneof=none memory redis prometheus"`

		Redis struct {
			Addr      string   `yaml:"addr"`
			Password  string   `yaml:"password"`
			DB        int      `yaml:"db"`
			Prefix    string   `yaml:"prefix" default:"throttle:stats"`
			TTL       Duration `yaml:"ttl" default:"24h"`
			Bucket    string   `yaml:"bucket" default:"minute" validate:"oneof=minute none"`
			TrackKeys bool     `yaml:"track_keys"`
		} `yaml:"redis"`
	} `yaml:"stats"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
}

// loadConfig aplica os defaults primeiro e deixa o YAML sobrescrever: assim
// um `enabled: false` explícito do operador não é engolido pelos defaults.
func loadConfig(path string) (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if cfg.Stats.Backend == "redis" && strings.TrimSpace(cfg.Stats.Redis.Addr) == "" {
		return nil, errors.New("stats.redis.addr is required when stats.backend=redis")
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("UPSTREAM_URL"); v != "" {
		cfg.UpstreamURL = v
	}
	if v := os.Getenv("STATS_REDIS_ADDR"); v != "" {
		cfg.Stats.Redis.Addr = v
	}
	if v := os.Getenv("STATS_REDIS_PASSWORD"); v != "" {
		cfg.Stats.Redis.Password = v
	}
}
