package testdb

import (
	"net/url"
	"os"
	"time"
)

// TestTimeout bounds every database round trip made by this package.
const TestTimeout = 10 * time.Second

// DatabaseURLEnvVars lists the variables consulted for the test database,
// in order of precedence.
var DatabaseURLEnvVars = []string{
	"DATABASE_URL",
	"TASKD_TEST_DATABASE_URL",
	"TASKD_STORAGE_DATABASE_URL",
}

// GetTestDatabaseURL returns the first non-empty database URL from the
// environment, or "" when none is set.
func GetTestDatabaseURL() string {
	for _, name := range DatabaseURLEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ShouldSkipDatabaseTest reports whether no test database is configured.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

// IsCI reports whether tests run under a CI system.
func IsCI() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
}

// maskDatabaseURL hides the password of dbURL for test output.
func maskDatabaseURL(dbURL string) string {
	if dbURL == "" {
		return ""
	}
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	if parsed.User != nil {
		if _, hasPassword := parsed.User.Password(); hasPassword {
			parsed.User = url.UserPassword(parsed.User.Username(), "****")
		}
	}
	return parsed.String()
}
