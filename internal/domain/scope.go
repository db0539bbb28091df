package domain

import (
	"fmt"
	"strings"
)

// Scope resource types per the Docker Registry v2 token specification.
const (
	ScopeTypeRepository = "repository"
	ScopeTypeRegistry   = "registry"
)

// Scope action constants for registry operations.
const (
	ScopeActionPull   = "pull"
	ScopeActionPush   = "push"
	ScopeActionDelete = "delete"
	ScopeActionAll    = "*"
	ScopeActionNotify = "notify"
)

// AccessScope limits what a token authorizes: a resource type, a resource
// name, and an ordered set of actions. Scopes are only ever used to
// construct tokens; they are never persisted.
type AccessScope struct {
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	Actions []string `json:"actions"`
}

// ReadRepositoryScope grants pull access to a single repository.
func ReadRepositoryScope(repository string) AccessScope {
	return AccessScope{
		Type:    ScopeTypeRepository,
		Name:    repository,
		Actions: []string{ScopeActionPull},
	}
}

// WriteRepositoryScope grants pull and push access to a single repository.
func WriteRepositoryScope(repository string) AccessScope {
	return AccessScope{
		Type:    ScopeTypeRepository,
		Name:    repository,
		Actions: []string{ScopeActionPull, ScopeActionPush},
	}
}

// CatalogScope grants full access to the registry catalog listing.
func CatalogScope() AccessScope {
	return AccessScope{
		Type:    ScopeTypeRegistry,
		Name:    "catalog",
		Actions: []string{ScopeActionAll},
	}
}

// NotifyScope authorizes posting registry notifications to the webhook.
func NotifyScope() AccessScope {
	return AccessScope{
		Type:    ScopeTypeRegistry,
		Name:    "notifications",
		Actions: []string{ScopeActionNotify},
	}
}

// ParseAccessScope parses a Docker v2 scope string
// (type:name:action1,action2) into an AccessScope.
func ParseAccessScope(s string) (AccessScope, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return AccessScope{}, fmt.Errorf("invalid scope format: %s", s)
	}

	actions := strings.Split(parts[2], ",")
	for i, action := range actions {
		actions[i] = strings.TrimSpace(action)
	}

	return AccessScope{
		Type:    parts[0],
		Name:    parts[1],
		Actions: actions,
	}, nil
}

// Grants reports whether the scope includes the requested action, either
// verbatim or via the "*" wildcard.
func (s AccessScope) Grants(action string) bool {
	for _, a := range s.Actions {
		if a == action || a == ScopeActionAll {
			return true
		}
	}
	return false
}

// String renders the scope in Docker v2 form: type:name:action1,action2.
func (s AccessScope) String() string {
	return s.Type + ":" + s.Name + ":" + strings.Join(s.Actions, ",")
}
