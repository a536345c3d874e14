package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Logging     LoggingConfig  `toml:"logging"`
	Browser     BrowserConfig  `toml:"browser"`
	Login       LoginConfig    `toml:"login"`
	Gemini      GeminiConfig   `toml:"gemini"`
	Claude      ClaudeConfig   `toml:"claude"`
	LLM         LLMConfig      `toml:"llm"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	Session     SessionConfig  `toml:"session"`
	Output      OutputConfig   `toml:"output"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// BrowserConfig contains Chrome provisioning configuration
type BrowserConfig struct {
	Headless     bool          `toml:"headless"`      // Run Chrome without a visible window
	UserAgent    string        `toml:"user_agent"`    // User agent string presented to the site
	UserDataDir  string        `toml:"user_data_dir"` // Chrome profile directory (persists cookies between runs)
	WindowWidth  int           `toml:"window_width"`
	WindowHeight int           `toml:"window_height"`
	WaitTimeout  time.Duration `toml:"wait_timeout"`  // Long waits: page ready, filter panels
	ShortTimeout time.Duration `toml:"short_timeout"` // Short waits: individual elements inside a located item
	MaxRetries   int           `toml:"max_retries"`   // Element relocation attempts before falling back
}

// LoginConfig contains sign-in behavior for the target site
type LoginConfig struct {
	Username    string        `toml:"username"`     // Account email (prefer PROSPECT_LOGIN_USERNAME)
	Password    string        `toml:"password"`     // Account password (prefer PROSPECT_LOGIN_PASSWORD)
	GracePeriod time.Duration `toml:"grace_period"` // Manual verification window after automated sign-in
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for classification calls (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.0 for deterministic classification)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (ANTHROPIC_API_KEY or config)
	Model       string  `toml:"model"`       // Model for classification calls (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 1024)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.0)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// PipelineConfig contains harvesting and enrichment tuning
type PipelineConfig struct {
	MaxScrollRounds int           `toml:"max_scroll_rounds"` // Hard budget on scroll iterations
	StagnantRounds  int           `toml:"stagnant_rounds"`   // Consecutive no-growth rounds before convergence
	ScrollSettle    time.Duration `toml:"scroll_settle"`     // Pause after each scroll for lazy content
	ProfileDelay    time.Duration `toml:"profile_delay"`     // Minimum spacing between profile visits
	MaxLeads        int           `toml:"max_leads"`         // Default lead budget when the request omits one (0 = unlimited)
}

// SessionConfig contains session lifecycle configuration
type SessionConfig struct {
	IdleTimeout   time.Duration `toml:"idle_timeout"`   // Idle sessions older than this are reaped
	ReapSchedule  string        `toml:"reap_schedule"`  // Cron schedule for the reaper sweep
	LoginDeadline time.Duration `toml:"login_deadline"` // How long to wait for the operator to finish signing in
}

// OutputConfig contains CSV artifact configuration
type OutputConfig struct {
	Dir string `toml:"dir"` // Directory for CSV and diagnostic artifacts
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in prospect.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Browser: BrowserConfig{
			Headless:     false, // The operator signs in by hand, so a visible window is the default
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			UserDataDir:  "./data/chrome",
			WindowWidth:  1920,
			WindowHeight: 1080,
			WaitTimeout:  30 * time.Second,
			ShortTimeout: 10 * time.Second,
			MaxRetries:   3,
		},
		Login: LoginConfig{
			GracePeriod: 40 * time.Second, // Window for solving checkpoints after automated sign-in
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			Temperature: 0.0,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   1024,
			Timeout:     "2m",
			Temperature: 0.0,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Pipeline: PipelineConfig{
			MaxScrollRounds: 40,
			StagnantRounds:  3,
			ScrollSettle:    2 * time.Second,
			ProfileDelay:    3 * time.Second,
			MaxLeads:        0,
		},
		Session: SessionConfig{
			IdleTimeout:   30 * time.Minute,
			ReapSchedule:  "*/5 * * * *", // Every 5 minutes
			LoginDeadline: 5 * time.Minute,
		},
		Output: OutputConfig{
			Dir: "./data/output",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
// Priority system: CLI flags > Environment variables > Config file > Defaults
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with later files
// overriding earlier ones. Environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: PROSPECT_ENV, fallback: GO_ENV)
	if env := os.Getenv("PROSPECT_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("PROSPECT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("PROSPECT_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("PROSPECT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("PROSPECT_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("PROSPECT_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Browser configuration
	if headless := os.Getenv("PROSPECT_BROWSER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}
	if userAgent := os.Getenv("PROSPECT_BROWSER_USER_AGENT"); userAgent != "" {
		config.Browser.UserAgent = userAgent
	}
	if userDataDir := os.Getenv("PROSPECT_BROWSER_USER_DATA_DIR"); userDataDir != "" {
		config.Browser.UserDataDir = userDataDir
	}
	if waitTimeout := os.Getenv("PROSPECT_BROWSER_WAIT_TIMEOUT"); waitTimeout != "" {
		if wt, err := time.ParseDuration(waitTimeout); err == nil {
			config.Browser.WaitTimeout = wt
		}
	}
	if shortTimeout := os.Getenv("PROSPECT_BROWSER_SHORT_TIMEOUT"); shortTimeout != "" {
		if st, err := time.ParseDuration(shortTimeout); err == nil {
			config.Browser.ShortTimeout = st
		}
	}
	if maxRetries := os.Getenv("PROSPECT_BROWSER_MAX_RETRIES"); maxRetries != "" {
		if mr, err := strconv.Atoi(maxRetries); err == nil {
			config.Browser.MaxRetries = mr
		}
	}

	// Login configuration
	if username := os.Getenv("PROSPECT_LOGIN_USERNAME"); username != "" {
		config.Login.Username = username
	}
	if password := os.Getenv("PROSPECT_LOGIN_PASSWORD"); password != "" {
		config.Login.Password = password
	}
	if gracePeriod := os.Getenv("PROSPECT_LOGIN_GRACE_PERIOD"); gracePeriod != "" {
		if gp, err := time.ParseDuration(gracePeriod); err == nil {
			config.Login.GracePeriod = gp
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("PROSPECT_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("PROSPECT_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("PROSPECT_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if temperature := os.Getenv("PROSPECT_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("PROSPECT_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // PROSPECT_ prefix takes priority
	}
	if model := os.Getenv("PROSPECT_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("PROSPECT_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("PROSPECT_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if temperature := os.Getenv("PROSPECT_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("PROSPECT_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Pipeline configuration
	if maxScrollRounds := os.Getenv("PROSPECT_PIPELINE_MAX_SCROLL_ROUNDS"); maxScrollRounds != "" {
		if msr, err := strconv.Atoi(maxScrollRounds); err == nil {
			config.Pipeline.MaxScrollRounds = msr
		}
	}
	if stagnantRounds := os.Getenv("PROSPECT_PIPELINE_STAGNANT_ROUNDS"); stagnantRounds != "" {
		if sr, err := strconv.Atoi(stagnantRounds); err == nil {
			config.Pipeline.StagnantRounds = sr
		}
	}
	if scrollSettle := os.Getenv("PROSPECT_PIPELINE_SCROLL_SETTLE"); scrollSettle != "" {
		if ss, err := time.ParseDuration(scrollSettle); err == nil {
			config.Pipeline.ScrollSettle = ss
		}
	}
	if profileDelay := os.Getenv("PROSPECT_PIPELINE_PROFILE_DELAY"); profileDelay != "" {
		if pd, err := time.ParseDuration(profileDelay); err == nil {
			config.Pipeline.ProfileDelay = pd
		}
	}
	if maxLeads := os.Getenv("PROSPECT_PIPELINE_MAX_LEADS"); maxLeads != "" {
		if ml, err := strconv.Atoi(maxLeads); err == nil {
			config.Pipeline.MaxLeads = ml
		}
	}

	// Session configuration
	if idleTimeout := os.Getenv("PROSPECT_SESSION_IDLE_TIMEOUT"); idleTimeout != "" {
		if it, err := time.ParseDuration(idleTimeout); err == nil {
			config.Session.IdleTimeout = it
		}
	}
	if reapSchedule := os.Getenv("PROSPECT_SESSION_REAP_SCHEDULE"); reapSchedule != "" {
		config.Session.ReapSchedule = reapSchedule
	}
	if loginDeadline := os.Getenv("PROSPECT_SESSION_LOGIN_DEADLINE"); loginDeadline != "" {
		if ld, err := time.ParseDuration(loginDeadline); err == nil {
			config.Session.LoginDeadline = ld
		}
	}

	// Output configuration
	if outputDir := os.Getenv("PROSPECT_OUTPUT_DIR"); outputDir != "" {
		config.Output.Dir = outputDir
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
