package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Text-model configuration (OpenAI-compatible protocol).
	// All providers (openai, deepseek, siliconflow, openrouter, ollama) use the same config.
	LLMProvider string // Provider identifier
	LLMAPIKey   string
	LLMBaseURL  string // Optional, has a default per provider
	LLMModel    string
	LLMTimeout  int // Request timeout in seconds (default: 120)

	// Image-model configuration. Image generation is optional: when no API key
	// is configured the chapter pipeline skips illustration entirely.
	ImageProvider string
	ImageAPIKey   string
	ImageBaseURL  string
	ImageModel    string

	// AdminPassword guards the tenant-provisioning dashboard.
	AdminPassword string

	// WorkflowPassword is the shared password for the meeting-prep demo
	// (legacy single-password gate, kept alongside per-tenant access codes).
	WorkflowPassword string

	// Other configuration
	Mode        string // demo, dev, prod
	Addr        string
	Port        int
	Data        string
	Driver      string // postgres, sqlite
	DSN         string
	InstanceURL string
	Version     string
}

// Provider default configurations for the text model.
// Used when LLM_BASE_URL / LLM_MODEL are not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "anthropic/claude-sonnet-4",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true if a text-model API key is configured.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMAPIKey != ""
}

// IsImageEnabled returns true if an image-model API key is configured.
func (p *Profile) IsImageEnabled() bool {
	return p.ImageAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("LANTERNWORKS_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("LANTERNWORKS_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("LANTERNWORKS_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("LANTERNWORKS_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("LANTERNWORKS_LLM_TIMEOUT_SECONDS", 120)

	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("unknown LLM provider, treating as generic OpenAI-compatible", "provider", p.LLMProvider)
		}
	}
	if p.LLMBaseURL == "" || p.LLMModel == "" {
		if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
			if p.LLMBaseURL == "" {
				p.LLMBaseURL = defaults.BaseURL
			}
			if p.LLMModel == "" {
				p.LLMModel = defaults.Model
			}
		}
	}

	p.ImageProvider = getEnvOrDefault("LANTERNWORKS_IMAGE_PROVIDER", "openai")
	p.ImageAPIKey = getEnvOrDefault("LANTERNWORKS_IMAGE_API_KEY", "")
	p.ImageBaseURL = getEnvOrDefault("LANTERNWORKS_IMAGE_BASE_URL", "")
	p.ImageModel = getEnvOrDefault("LANTERNWORKS_IMAGE_MODEL", "")

	p.AdminPassword = getEnvOrDefault("LANTERNWORKS_ADMIN_PASSWORD", "")
	p.WorkflowPassword = getEnvOrDefault("LANTERNWORKS_WORKFLOW_PASSWORD", "")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "lanternworks")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/lanternworks"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("lanternworks_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres driver")
	}

	return nil
}
