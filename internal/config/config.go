package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port string
		Host string
		TLS  struct {
			Enabled  bool
			CertFile string
			KeyFile  string
		}
		DeployDomain string
		Debug        bool
	}
	Backend struct {
		BaseURL string
		Timeout time.Duration
	}
	Auth struct {
		GoogleKey      string
		GoogleSecret   string
		GoogleRedirect string
		GithubKey      string
		GithubSecret   string
		GithubRedirect string
		SessionSecret  string
	}
	Admin struct {
		// Emails granted the management affordances in the UI.
		Emails []string
	}
	Catalog struct {
		// Department pushed into the URL when /rooms is opened without one.
		DefaultDepartment string
	}
	Database struct {
		// DSN for the session store. SQLite DSNs start with "file:",
		// anything else is treated as PostgreSQL.
		DSN      string
		RedisURI string
	}
	Resend struct {
		APIKey           string
		DefaultSender    string
		ContactRecipient string
	}
	Sentry struct {
		DSN string
	}
}

func Load() (*Config, error) {
	envStack := os.Getenv("ENV_STACK")

	if envStack != "" {
		filePath := "./env-files/.env." + envStack
		if err := godotenv.Load(filePath); err != nil {
			fmt.Printf("Error loading .env file: %s\n", err)
		}
	}

	c := &Config{}

	c.Server.Port = os.Getenv("SERVER_PORT")
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}

	c.Server.Host = os.Getenv("SERVER_HOST")
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}

	c.Server.DeployDomain = os.Getenv("DEPLOY_DOMAIN")
	if c.Server.DeployDomain == "" {
		c.Server.DeployDomain = c.Server.Host + ":" + c.Server.Port
	}

	c.Server.Debug = os.Getenv("ENABLE_DEBUG_ENDPOINTS") == "true"

	useTLS := os.Getenv("USE_TLS")
	c.Server.TLS.Enabled = useTLS == "true" || useTLS == "1"
	c.Server.TLS.CertFile = "./certs/localhost.pem"
	c.Server.TLS.KeyFile = "./certs/localhost-key.pem"

	c.Backend.BaseURL = strings.TrimRight(os.Getenv("ROOMS_API_BASE_URL"), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:3000"
	}
	c.Backend.Timeout = 15 * time.Second
	if raw := os.Getenv("ROOMS_API_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			c.Backend.Timeout = d
		} else {
			fmt.Printf("Invalid ROOMS_API_TIMEOUT %q, using default\n", raw)
		}
	}

	c.Auth.SessionSecret = os.Getenv("SESSION_SECRET")

	c.Auth.GoogleKey = os.Getenv("GOOGLE_KEY")
	c.Auth.GoogleSecret = os.Getenv("GOOGLE_SECRET")
	c.Auth.GoogleRedirect = fmt.Sprintf("https://%s/auth/google/callback", c.Server.DeployDomain)

	c.Auth.GithubKey = os.Getenv("GITHUB_KEY")
	c.Auth.GithubSecret = os.Getenv("GITHUB_SECRET")
	c.Auth.GithubRedirect = fmt.Sprintf("https://%s/auth/github/callback", c.Server.DeployDomain)

	c.Admin.Emails = splitList(os.Getenv("ADMIN_EMAILS"))

	c.Catalog.DefaultDepartment = os.Getenv("DEFAULT_DEPARTMENT")
	if c.Catalog.DefaultDepartment == "" {
		c.Catalog.DefaultDepartment = "CSE"
	}

	c.Database.DSN = os.Getenv("SESSION_STORE_DSN")
	if c.Database.DSN == "" {
		c.Database.DSN = "file:sessions.db"
	}
	c.Database.RedisURI = os.Getenv("REDIS_URI")

	c.Resend.APIKey = os.Getenv("RESEND_API_KEY")
	c.Resend.DefaultSender = os.Getenv("RESEND_DEFAULT_SENDER")
	if c.Resend.DefaultSender == "" {
		c.Resend.DefaultSender = "noreply@campustour.local"
	}
	c.Resend.ContactRecipient = os.Getenv("CONTACT_RECIPIENT")

	c.Sentry.DSN = os.Getenv("SENTRY_DSN")

	return c, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
