package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	API     APIConfig     `yaml:"api"`
	HTTP    HTTPConfig    `yaml:"http"`
	State   StateConfig   `yaml:"state"`
	Redis   RedisConf     `yaml:"redis"`
	Preview PreviewConfig `yaml:"preview"`
	Notify  NotifyConfig  `yaml:"notify"`
	Site    SiteConfig    `yaml:"site"`
	Console ConsoleConfig `yaml:"console"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:5000"`
	Timeout time.Duration `yaml:"timeout" env-default:"15s"`
}

type HTTPConfig struct {
	Host          string `yaml:"host"`
	Port          string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET" env-default:"change-me"`
	// SecureCookie restricts session, CSRF and theme cookies to HTTPS. Leave
	// off when the console is served over plain http.
	SecureCookie bool `yaml:"secure_cookie" env:"HTTP_SECURE_COOKIE" env-default:"false"`
}

type StateConfig struct {
	Driver string        `yaml:"driver" env-default:"memory"` // memory | redis
	TTL    time.Duration `yaml:"ttl" env-default:"12h"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redispassword"`
	RedisDB       int    `yaml:"redis_db"`
}

type PreviewConfig struct {
	HighlightStyle string `yaml:"highlight_style" env-default:"github"`
	Sanitize       bool   `yaml:"sanitize"`
}

type NotifyConfig struct {
	DismissAfter time.Duration `yaml:"dismiss_after" env-default:"3s"`
	CloseAfter   time.Duration `yaml:"close_after" env-default:"1s"`
}

type SiteConfig struct {
	Brand      string   `yaml:"brand" env-default:"TinyRisks"`
	Subtitle   string   `yaml:"subtitle" env-default:"Art Studio"`
	FooterText string   `yaml:"footer_text" env-default:"TinyRisks.art — Built with semantic HTML + simple CSS."`
	Themes     []string `yaml:"themes" env-default:"brass,cyan,light"`
	OutputDir  string   `yaml:"output_dir" env-default:"htdocs"`
}

// ConsoleConfig lists the extra drop-zones and copyable prompts shown on the
// console.
type ConsoleConfig struct {
	Uploads []UploadConfig `yaml:"uploads"`
	Prompts []PromptConfig `yaml:"prompts"`
}

type UploadConfig struct {
	ID     string            `yaml:"id"`
	Action string            `yaml:"action"`
	Field  string            `yaml:"field"`
	Accept string            `yaml:"accept"`
	Label  string            `yaml:"label"`
	Extra  map[string]string `yaml:"extra"`
	// Refresh is the entity re-fetched after a successful upload.
	Refresh string `yaml:"refresh"`
}

type PromptConfig struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

// Load resolves the config path from the --config flag value or CONFIG_PATH.
// An empty path means env and defaults.
func Load(flagPath string) (*Config, error) {
	path := fetchConfigPath(flagPath)
	if path == "" {
		return LoadEnv()
	}

	return LoadPath(path)
}

// LoadPath reads a YAML file and overlays the environment on top of it.
func LoadPath(configPath string) (*Config, error) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &Error{Reason: "config file does not exist: " + configPath}
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, &Error{Reason: "cannot read config: " + err.Error()}
	}

	return &cfg, nil
}

// LoadEnv builds the config from defaults and environment only, so the CLI
// works without a config file.
func LoadEnv() (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, &Error{Reason: "cannot read config from env: " + err.Error()}
	}

	return &cfg, nil
}

type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func fetchConfigPath(res string) string {
	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
