// Package migration applies pending schema migrations before the connection
// pool is constructed. It wraps golang-migrate with the property-derivation
// rule used by the managed database resource.
package migration

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/skillsenselab/reskit/errors"
)

// Property keys forced into every plan.
const (
	propDriver   = "migration.driver"
	propURL      = "migration.url"
	propUser     = "migration.user"
	propPassword = "migration.password"

	propLocations = "migration.locations"
	propTable     = "migration.table"
)

const (
	defaultLocations = "file://migrations"
	defaultTable     = "schema_migrations"
)

// Plan is the transient migration configuration derived from the resource
// configuration. It is built fresh on every start and discarded after the
// migration step completes.
type Plan struct {
	URL        string
	User       string
	Password   string
	Properties map[string]string
}

// NewPlan derives a migration plan from the passthrough options: every key
// containing "migration" is selected and its hyphens rewritten to dots, then
// the driver (left empty, resolved by URL scheme), URL, user and password
// properties are force-set. Missing credentials fail with CONFIG_INVALID
// before any network call.
func NewPlan(options map[string]string, connURL, user, password string) (Plan, error) {
	if user == "" {
		return Plan{}, apperrors.Configuration("database user is required for migration")
	}
	if password == "" {
		return Plan{}, apperrors.Configuration("database password is required for migration")
	}

	props := make(map[string]string, len(options)+4)
	for k, v := range options {
		if strings.Contains(k, "migration") {
			props[strings.ReplaceAll(k, "-", ".")] = v
		}
	}
	props[propDriver] = ""
	props[propURL] = connURL
	props[propUser] = user
	props[propPassword] = password

	return Plan{
		URL:        connURL,
		User:       user,
		Password:   password,
		Properties: props,
	}, nil
}

// SourceURL returns the migration script location, e.g. "file://migrations".
func (p Plan) SourceURL() string {
	if loc := p.Properties[propLocations]; loc != "" {
		return loc
	}
	return defaultLocations
}

// Table returns the migration history table name.
func (p Plan) Table() string {
	if table := p.Properties[propTable]; table != "" {
		return table
	}
	return defaultTable
}

// DriverName resolves the sql driver from the URL scheme; the driver
// property itself is always left empty.
func (p Plan) DriverName() (string, error) {
	u, err := url.Parse(p.URL)
	if err != nil || u.Scheme == "" {
		return "", apperrors.Configuration(fmt.Sprintf("cannot resolve migration driver from URL %q", p.URL))
	}
	return u.Scheme, nil
}

// DSN returns the connection string with credentials embedded.
func (p Plan) DSN() (string, error) {
	u, err := url.Parse(p.URL)
	if err != nil {
		return "", apperrors.Configuration(fmt.Sprintf("invalid migration URL %q: %v", p.URL, err))
	}
	u.User = url.UserPassword(p.User, p.Password)
	return u.String(), nil
}
