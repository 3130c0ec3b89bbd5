package config

import (
	"errors"
	"fmt"

	"github.com/ethanctan/ai-oa/internal/utils"
	_ "github.com/joho/godotenv/autoload"
)

// Network identity strategies for sandbox containers.
const (
	NetworkModePorts  = "ports"   // publish a host port per instance
	NetworkModeBridge = "network" // attach to a named bridge, reverse proxy by subdomain
)

// Config holds all environment-driven settings for the server.
type Config struct {
	Port string

	// Postgres
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	// Redis (timer store)
	RedisAddr string

	// Docker control plane. When DockerHost is set the provisioner tries a
	// TLS-secured remote daemon first, using the PEM material below; on any
	// failure it falls back to the local socket.
	DockerHost    string
	DockerCAPEM   string
	DockerCertPEM string
	DockerKeyPEM  string

	SandboxImage      string
	SandboxDockerfile string
	NetworkMode       string
	NetworkName       string
	BaseDomain        string
	ProjectsDir       string

	// AI provider
	Provider string

	// GitHub access token for starter repo clones and submission pushes
	GithubToken string

	// Tenancy
	JWTSecret string

	// Stale admin-candidate cleanup
	CleanupSchedule  string
	CleanupRetention int // hours
	CleanupEnabled   bool
}

// loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Port: utils.GetEnv("PORT", "8080"),

		DBHost:     utils.GetEnv("POSTGRES_HOST", "localhost"),
		DBUser:     utils.GetEnv("POSTGRES_USER", "postgres"),
		DBPassword: utils.GetEnv("POSTGRES_PASSWORD", "postgres"),
		DBName:     utils.GetEnv("POSTGRES_DB", "postgres"),
		DBPort:     utils.GetEnv("POSTGRES_PORT", "5432"),
		DBSSLMode:  utils.GetEnv("POSTGRES_SSLMODE", "disable"),

		RedisAddr: utils.GetEnv("REDIS_ADDR", "localhost:6379"),

		DockerHost:    utils.GetEnv("DOCKER_REMOTE_HOST", ""),
		DockerCAPEM:   utils.GetEnv("DOCKER_TLS_CA_PEM", ""),
		DockerCertPEM: utils.GetEnv("DOCKER_TLS_CERT_PEM", ""),
		DockerKeyPEM:  utils.GetEnv("DOCKER_TLS_KEY_PEM", ""),

		SandboxImage:      utils.GetEnv("SANDBOX_IMAGE", "my-code-server-with-extension"),
		SandboxDockerfile: utils.GetEnv("SANDBOX_DOCKERFILE", ""),
		NetworkMode:       utils.GetEnv("SANDBOX_NETWORK_MODE", NetworkModePorts),
		NetworkName:       utils.GetEnv("SANDBOX_NETWORK_NAME", "ai-oa-sandboxes"),
		BaseDomain:        utils.GetEnv("SANDBOX_BASE_DOMAIN", ""),
		ProjectsDir:       utils.GetEnv("PROJECTS_PATH", "/tmp/code-server-projects"),

		Provider: utils.GetEnv("AI_PROVIDER", "gemini"),

		GithubToken: utils.GetEnv("GITHUB_TOKEN", ""),

		JWTSecret: utils.GetEnv("JWT_SECRET", ""),

		CleanupSchedule:  utils.GetEnv("CLEANUP_SCHEDULE", "0 3 * * *"),
		CleanupRetention: utils.GetEnvInt("CLEANUP_RETENTION_HOURS", 24),
		CleanupEnabled:   utils.GetEnvBool("CLEANUP_ENABLED", true),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.NetworkMode != NetworkModePorts && config.NetworkMode != NetworkModeBridge {
		return errors.New("unsupported sandbox network mode: " + config.NetworkMode + ". Supported: ports, network")
	}
	if config.NetworkMode == NetworkModeBridge && config.BaseDomain == "" {
		return errors.New("SANDBOX_BASE_DOMAIN is required when SANDBOX_NETWORK_MODE=network")
	}
	if config.Provider != "gemini" {
		return errors.New("unsupported AI provider: " + config.Provider + ". Currently supported: gemini")
	}
	return nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}
