package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Addr string `yaml:"-"` // computed after load, never read from file
	} `yaml:"server"`
	Supabase struct {
		URL string `yaml:"url"`
		Key string `yaml:"key"`
	} `yaml:"supabase"`
	HuggingFace struct {
		APIKey     string `yaml:"api_key"`
		ModelID    string `yaml:"model_id"`
		BaseURL    string `yaml:"base_url"`
		TimeoutSec int    `yaml:"timeout_sec"` // request timeout in seconds
	} `yaml:"huggingface"`
	Agent struct {
		APIKey          string `yaml:"api_key"`
		Model           string `yaml:"model"`
		MaxOutputTokens int    `yaml:"max_output_tokens"`
	} `yaml:"agent"`
	MCP struct {
		Command        string   `yaml:"command"`
		Args           []string `yaml:"args"`
		ReuseSession   bool     `yaml:"reuse_session"`
		CallTimeoutSec int      `yaml:"call_timeout_sec"`
	} `yaml:"mcp"`
	Log struct {
		Level    string `yaml:"level"`
		Format   string `yaml:"format"`
		Output   string `yaml:"output"`
		FilePath string `yaml:"file_path"`
	} `yaml:"log"`
}

func Load() *Config {
	// .env first; missing file is fine, system env still applies
	_ = godotenv.Load()

	var cfg Config

	if data, err := os.ReadFile("config.yaml"); err == nil {
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			log.Printf("Error loading config.yaml: %v, falling back to environment variables", err)
			return loadFromEnv()
		}
		log.Println("Loading configuration from config.yaml")

		cfg.Server.Addr = fmt.Sprintf(":%d", cfg.Server.Port)
		applyEnvOverrides(&cfg)
		applyDefaults(&cfg)
		return &cfg
	}

	return loadFromEnv()
}

// applyEnvOverrides pulls secrets and connection details from the
// environment so they never have to live in config.yaml.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_KEY"); v != "" {
		cfg.Supabase.Key = v
	}
	if v := os.Getenv("HUGGINGFACE_API_KEY"); v != "" {
		cfg.HuggingFace.APIKey = v
	}
	if v := os.Getenv("HUGGINGFACE_MODEL_ID"); v != "" {
		cfg.HuggingFace.ModelID = v
	}
	if v := os.Getenv("HUGGINGFACE_TIMEOUT_SECONDS"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			cfg.HuggingFace.TimeoutSec = sec
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Agent.APIKey = v
	}
	if v := os.Getenv("AGENT_MODEL"); v != "" {
		cfg.Agent.Model = v
	}
	if v := os.Getenv("AGENT_MAX_OUTPUT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Agent.MaxOutputTokens = n
		}
	}
	if v := os.Getenv("MCP_SERVER_COMMAND"); v != "" {
		cfg.MCP.Command = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HuggingFace.BaseURL == "" {
		cfg.HuggingFace.BaseURL = "https://api-inference.huggingface.co"
	}
	if cfg.HuggingFace.TimeoutSec <= 0 {
		cfg.HuggingFace.TimeoutSec = 30
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = "gemini-2.0-flash"
	}
	if cfg.Agent.MaxOutputTokens <= 0 {
		cfg.Agent.MaxOutputTokens = 1024
	}
	if cfg.MCP.Command == "" {
		cfg.MCP.Command = "dbmcp"
	}
	if cfg.MCP.CallTimeoutSec <= 0 {
		cfg.MCP.CallTimeoutSec = 60
	}
}

func loadFromEnv() *Config {
	// Minimal configuration when config.yaml is absent or broken.
	var cfg Config

	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	cfg.Server.Addr = fmt.Sprintf(":%d", cfg.Server.Port)
	cfg.MCP.ReuseSession = true

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	log.Println("Configuration loaded from environment variables; some settings may be missing")
	return &cfg
}
