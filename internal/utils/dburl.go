package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// WithIsolatedRole rewrites a Postgres URL so the service logs in as the
// per-run role "<runnerID>-<runNumber>". That role's search_path points at
// its own schema, which keeps parallel CI runs from sharing listings tables.
// The password and every query parameter are kept.
func WithIsolatedRole(baseURL, runnerID, runNumber string) (string, error) {
	if runnerID == "" || runNumber == "" {
		return "", fmt.Errorf("isolated schema needs both a runner id and a run number")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DB URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid DB URL: scheme %q is not postgres", u.Scheme)
	}

	role := strings.ToLower(runnerID + "-" + runNumber)
	if password, ok := u.User.Password(); ok {
		u.User = url.UserPassword(role, password)
	} else {
		u.User = url.User(role)
	}
	return u.String(), nil
}
