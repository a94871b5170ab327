package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "SCANNAMER_CONFIG"
	watchDirEnv    = "SCANNAMER_WATCH_DIR"
	ollamaHostEnv  = "OLLAMA_HOST"
	modelEnv       = "SCANNAMER_MODEL"
	popplerPathEnv = "SCANNAMER_POPPLER_PATH"
)

// Config holds high-level settings required across the application. It is
// built once at startup and passed into the orchestrator and its
// collaborators; there are no process-wide mutable globals.
type Config struct {
	Watch   WatchConfig   `yaml:"watch"`
	Ollama  OllamaConfig  `yaml:"ollama"`
	PDF     PDFConfig     `yaml:"pdf"`
	Logging LoggingConfig `yaml:"logging"`
}

// WatchConfig describes the directory under observation.
type WatchConfig struct {
	Dir                     string `yaml:"dir"`
	StabilityTimeoutSeconds int    `yaml:"stabilityTimeoutSeconds"`
	SkipSweep               bool   `yaml:"skipSweep"`
}

// StabilityTimeout resolves the poll timeout as a duration.
func (w WatchConfig) StabilityTimeout() time.Duration {
	if w.StabilityTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(w.StabilityTimeoutSeconds) * time.Second
}

// OllamaConfig defines how to contact the local model host.
type OllamaConfig struct {
	Host                  string `yaml:"host"`
	Model                 string `yaml:"model"`
	RequestTimeoutSeconds int    `yaml:"requestTimeoutSeconds"`
}

// RequestTimeout bounds one inference call. Local vision models can be slow
// on first load, but a hung server must not hang the process forever.
func (o OllamaConfig) RequestTimeout() time.Duration {
	if o.RequestTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(o.RequestTimeoutSeconds) * time.Second
}

// PDFConfig locates the external renderer used for PDF inputs.
type PDFConfig struct {
	PopplerPath string `yaml:"popplerPath"`
}

// LoggingConfig selects log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(watchDirEnv); v != "" {
		c.Watch.Dir = v
	}

	if v := os.Getenv(ollamaHostEnv); v != "" {
		c.Ollama.Host = v
	}

	if v := os.Getenv(modelEnv); v != "" {
		c.Ollama.Model = v
	}

	if v := os.Getenv(popplerPathEnv); v != "" {
		c.PDF.PopplerPath = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Watch.Dir != "" {
		base.Watch.Dir = override.Watch.Dir
	}
	if override.Watch.StabilityTimeoutSeconds > 0 {
		base.Watch.StabilityTimeoutSeconds = override.Watch.StabilityTimeoutSeconds
	}
	if override.Watch.SkipSweep {
		base.Watch.SkipSweep = true
	}

	if override.Ollama.Host != "" {
		base.Ollama.Host = override.Ollama.Host
	}
	if override.Ollama.Model != "" {
		base.Ollama.Model = override.Ollama.Model
	}
	if override.Ollama.RequestTimeoutSeconds > 0 {
		base.Ollama.RequestTimeoutSeconds = override.Ollama.RequestTimeoutSeconds
	}

	if override.PDF.PopplerPath != "" {
		base.PDF.PopplerPath = override.PDF.PopplerPath
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Watch: WatchConfig{
			Dir:                     "scans",
			StabilityTimeoutSeconds: 30,
		},
		Ollama: OllamaConfig{
			Host:                  "http://localhost:11434",
			Model:                 "qwen3-vl:32b",
			RequestTimeoutSeconds: 300,
		},
		PDF:     PDFConfig{PopplerPath: ""},
		Logging: LoggingConfig{Level: "info"},
	}
}
