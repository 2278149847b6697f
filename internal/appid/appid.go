package appid

import (
	"context"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/areaoforigin/narrator/internal/assets/appidentity"
)

// DefaultEnvPrefix is used when no identity can be resolved.
const DefaultEnvPrefix = "NARRATOR_"

func init() {
	// An explicit identity path (FULMEN_APP_IDENTITY_PATH) still wins over the
	// embedded copy.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

// Get returns the resolved application identity.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

// EnvPrefix returns the identity env prefix, always ending in an underscore.
func EnvPrefix(ctx context.Context) string {
	identity, err := Get(ctx)
	if err != nil || identity == nil || strings.TrimSpace(identity.EnvPrefix) == "" {
		return DefaultEnvPrefix
	}
	prefix := identity.EnvPrefix
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return prefix
}
