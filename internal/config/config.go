package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/utils"
)

// Config carries everything the engine reads at startup. Values come from an
// optional YAML file, with environment variables taking precedence.
type Config struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`

	VectorStoreDir string `yaml:"vector_store_dir"`
	UploadDir      string `yaml:"upload_dir"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	RetrievalK   int `yaml:"retrieval_k"`

	WorkerConcurrency int `yaml:"worker_concurrency"`

	// Minimum spacing between websocket frames in milliseconds, so the
	// thinking markers stay distinct events on the client side.
	FrameGapMillis int `yaml:"frame_gap_millis"`
}

func defaults() Config {
	return Config{
		Port:              "8080",
		CORSOrigins:       []string{"http://localhost:3000", "http://localhost:5174"},
		VectorStoreDir:    "./vector_stores",
		UploadDir:         "./uploaded_files",
		ChunkSize:         500,
		ChunkOverlap:      50,
		RetrievalK:        4,
		WorkerConcurrency: 4,
		FrameGapMillis:    30,
	}
}

// Load reads the config file named by CONFIG_FILE (default "config.yaml")
// when it exists, then applies environment overrides. A missing file is not
// an error; a malformed one is.
func Load(log *logger.Logger) (Config, error) {
	cfg := defaults()

	path := utils.GetEnv("CONFIG_FILE", "config.yaml", log)
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		log.Info("Loaded config file", "path", path)
	case os.IsNotExist(err):
		log.Debug("No config file, using defaults", "path", path)
	default:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.Port = utils.GetEnv("PORT", cfg.Port, log)
	cfg.VectorStoreDir = utils.GetEnv("VECTOR_STORE_DIR", cfg.VectorStoreDir, log)
	cfg.UploadDir = utils.GetEnv("UPLOAD_DIR", cfg.UploadDir, log)
	cfg.ChunkSize = utils.GetEnvAsInt("CHUNK_SIZE", cfg.ChunkSize, log)
	cfg.ChunkOverlap = utils.GetEnvAsInt("CHUNK_OVERLAP", cfg.ChunkOverlap, log)
	cfg.RetrievalK = utils.GetEnvAsInt("RETRIEVAL_K", cfg.RetrievalK, log)
	cfg.WorkerConcurrency = utils.GetEnvAsInt("WORKER_CONCURRENCY", cfg.WorkerConcurrency, log)
	cfg.FrameGapMillis = utils.GetEnvAsInt("FRAME_GAP_MILLIS", cfg.FrameGapMillis, log)

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return cfg, fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if cfg.RetrievalK < 1 {
		cfg.RetrievalK = 1
	}
	if cfg.WorkerConcurrency < 1 {
		cfg.WorkerConcurrency = 1
	}
	return cfg, nil
}
