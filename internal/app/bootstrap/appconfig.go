// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration: HTTP ports, TLS, logging
// level and the like live in CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: clubhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionTTL    time.Duration // Session lifetime

	// File storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files")

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region string // AWS region
	StorageS3Bucket string // S3 bucket name
	StorageS3Prefix string // Key prefix (e.g., "clubhub/")

	// Google OAuth configuration
	GoogleClientID     string // OAuth2 client ID
	GoogleClientSecret string // OAuth2 client secret

	// Base URL for OAuth callbacks (e.g., "https://clubhub.example")
	BaseURL string

	// Membership policy
	AllowedEmailDomain  string // Google accounts must match this domain (blank allows any)
	RequiredDepartments int    // Departments each member must select
	SeedDepartments     bool   // Seed the default departments on startup

	// SuperAdmin bootstrap
	SuperAdminEmail    string // Email of the superadmin (promotes/creates on startup)
	SuperAdminName     string // Display name used when creating the superadmin
	SuperAdminPassword string // Password for the superadmin (required to create)
}
