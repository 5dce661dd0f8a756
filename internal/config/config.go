package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultPath = "configs/config.yaml"

var ErrMissingToken = errors.New("TELEGRAM_TOKEN must be provided")

type Config struct {
	Telegram struct {
		BotToken    string `yaml:"bot_token"`
		APIEndpoint string `yaml:"api_endpoint"`
		Debug       bool   `yaml:"debug"`
		ForceIPv4   bool   `yaml:"force_ipv4"`
		Workers     int    `yaml:"workers"`
	} `yaml:"telegram"`

	Admin struct {
		ChatID string `yaml:"chat_id"`
	} `yaml:"admin"`

	Shop struct {
		Name      string `yaml:"name"`
		OpenHour  int    `yaml:"open_hour"`
		CloseHour int    `yaml:"close_hour"`
	} `yaml:"shop"`

	Redis struct {
		Address    string `yaml:"address"`
		Password   string `yaml:"password"`
		DB         int    `yaml:"db"`
		TTLSeconds int    `yaml:"ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Notify struct {
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
	} `yaml:"notify"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads .env, then the YAML file at path (optional unless path is given explicitly),
// then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	// .env is optional; the process environment wins over it.
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = defaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Support ${ENV_VAR} placeholders in YAML config.
		data = []byte(os.ExpandEnv(string(data)))
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("ADMIN_CHAT_ID"); v != "" {
		c.Admin.ChatID = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Address = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HEALTH_CHECK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Monitoring.HealthCheckPort = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Shop.Name == "" {
		c.Shop.Name = "Lucas's Barbershop"
	}
	if c.Shop.OpenHour == 0 && c.Shop.CloseHour == 0 {
		c.Shop.OpenHour = 8
		c.Shop.CloseHour = 18
	}
	if c.Telegram.Workers <= 0 {
		c.Telegram.Workers = 4
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Notify.RatePerSecond <= 0 {
		c.Notify.RatePerSecond = 20
	}
	if c.Notify.Burst <= 0 {
		c.Notify.Burst = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks settings required to start. The admin chat is resolved lazily when
// the first notification goes out.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return ErrMissingToken
	}
	if c.Shop.OpenHour < 0 || c.Shop.CloseHour > 24 || c.Shop.OpenHour >= c.Shop.CloseHour {
		return errors.New("shop.open_hour must be before shop.close_hour within 0..24")
	}
	return nil
}

func (c *Config) RedisTTL() time.Duration {
	if c.Redis.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}
