package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Logging       LoggingConfig       `yaml:"logging"`
	Repository    RepositoryConfig    `yaml:"repository"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Email         EmailConfig         `yaml:"email"`
	Agent         AgentConfig         `yaml:"agent"`
	Worker        WorkerConfig        `yaml:"worker"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type"` // "postgres", "jsonfile" или "inmemory"
	Path string `yaml:"path"` // файл для jsonfile
}

type NotificationsConfig struct {
	Backend string `yaml:"backend"` // "file" или "redis"
	Path    string `yaml:"path"`
	Limit   int    `yaml:"limit"`
	Redis   string `yaml:"redis_addr"`
}

// EmailConfig: токен берётся только из окружения (MAILTRAP_API_TOKEN),
// в yaml он не хранится. Пустой токен отключает почтовую доставку.
type EmailConfig struct {
	Token     string `yaml:"-"`
	FromEmail string `yaml:"from_email"`
	To        string `yaml:"to"`
}

// AgentConfig: ключ API тоже только из окружения (GROQ_API_KEY).
// Без ключа сервер работает, но /api/chat и /ws недоступны.
type AgentConfig struct {
	APIKey string `yaml:"-"`
	Model  string `yaml:"model"`
}

type WorkerConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

func Load() (*Config, error) {
	file, err := os.Open("config.yml")
	if err != nil {
		return nil, fmt.Errorf("не могу открыть config.yml: %w", err)
	}
	defer file.Close()

	var cfg Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга config.yml: %w", err)
	}

	cfg.Email.Token = os.Getenv("MAILTRAP_API_TOKEN")
	cfg.Agent.APIKey = os.Getenv("GROQ_API_KEY")

	return &cfg, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) WorkerInterval() time.Duration {
	if c.Worker.IntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Worker.IntervalMinutes) * time.Minute
}
