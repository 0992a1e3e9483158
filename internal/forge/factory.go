package forge

import (
	"fmt"

	"github.com/lgulliver/cargolifter/pkg/config"
)

// NewBackend creates the backend selected by cfg.Type
func NewBackend(cfg config.BackendConfig) (Backend, error) {
	client := NewClient(cfg.RequestsPerSecond, cfg.Burst)

	branch := cfg.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	switch cfg.Type {
	case "github":
		if cfg.Owner == "" || cfg.Repo == "" {
			return nil, fmt.Errorf("github backend requires owner and repo")
		}
		return NewGitHub(client, cfg.Host, cfg.Owner, cfg.Repo, branch), nil
	case "gitlab":
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("gitlab backend requires a project id")
		}
		return NewGitLab(client, cfg.Host, cfg.ProjectID, branch), nil
	case "gitea":
		if cfg.Host == "" || cfg.Owner == "" || cfg.Repo == "" {
			return nil, fmt.Errorf("gitea backend requires host, owner and repo")
		}
		return NewGitea(client, cfg.Host, cfg.Owner, cfg.Repo, branch), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
