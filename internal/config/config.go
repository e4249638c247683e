package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string        `yaml:"env" env:"ENV" env-default:"local"`
	DSN         string        `yaml:"dsn" env:"DSN" env-required:"true"`
	TokenSecret string        `yaml:"token_secret" env:"TOKEN_SECRET" env-required:"true"`
	SessionKey  string        `yaml:"session_key" env:"SESSION_KEY" env-default:"storyslip-session"`
	TokenTTL    time.Duration `yaml:"token_ttl" env-default:"1h"`
	HTTP        HTTPConfig    `yaml:"http"`
	Redis       RedisConf     `yaml:"redis"`
	Widget      WidgetConf    `yaml:"widget"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" env-default:"8080"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

type WidgetConf struct {
	// PublicBaseURL is the origin embedded into generated embed snippets
	// and preview URLs.
	PublicBaseURL  string        `yaml:"public_base_url" env-default:"https://widgets.storyslip.io"`
	RenderCacheTTL time.Duration `yaml:"render_cache_ttl" env-default:"30s"`
	MaxPostsPage   int           `yaml:"max_posts_per_page" env-default:"50"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
