package authorize

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2/model"

	"github.com/Alijeyrad/formora_backend/config"
)

//go:embed model.conf
var defaultModel string

// Config holds configuration for the authorization system
type Config struct {
	// ModelPath overrides the embedded casbin model when set.
	ModelPath string

	// EnableAudit logs every decision and policy change.
	EnableAudit bool

	// PolicySyncEnabled attaches the postgres watcher so policy changes
	// propagate between instances.
	PolicySyncEnabled bool
}

func FromCentralConfig(c config.AuthorizationConfig) Config {
	return Config{
		ModelPath:         c.CasbinModelPath,
		EnableAudit:       c.EnableAudit,
		PolicySyncEnabled: c.PolicySyncEnabled,
	}
}

// LoadModel returns the model at path, or the embedded one when path is empty.
func LoadModel(path string) (model.Model, error) {
	if path == "" {
		return model.NewModelFromString(defaultModel)
	}
	m, err := model.NewModelFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load casbin model %s: %w", path, err)
	}
	return m, nil
}
