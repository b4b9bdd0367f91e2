package service

import (
	"k8s.io/apimachinery/pkg/util/sets"
)

// Authorizer is the allow-list gate shared by the mention and interaction
// entry points. An empty allow-list admits everyone.
type Authorizer struct {
	allowed sets.Set[string]
}

// NewAuthorizer creates an Authorizer. Blank ids are ignored.
func NewAuthorizer(userIDs []string) *Authorizer {
	allowed := sets.New[string]()
	for _, id := range userIDs {
		if id != "" {
			allowed.Insert(id)
		}
	}
	return &Authorizer{allowed: allowed}
}

// IsAuthorized reports whether userID may trigger deployment operations.
func (a *Authorizer) IsAuthorized(userID string) bool {
	if a.allowed.Len() == 0 {
		return true
	}
	return a.allowed.Has(userID)
}
