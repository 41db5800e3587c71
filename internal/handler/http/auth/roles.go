package auth

import (
	"slices"
	"strings"
)

// Roles carried in the "role" claim.
const (
	// RoleAdmin may inspect and modify the cache.
	RoleAdmin = "admin"
	// RoleViewer may only read admin status pages.
	RoleViewer = "viewer"
)

// Permission lists the methods and paths a role may use. A path ending in
// "/*" matches the prefix itself and everything below it.
type Permission struct {
	AllowedMethods []string
	AllowedPaths   []string
}

// RolePermissions maps each role to what it may do under /admin.
var RolePermissions = map[string]Permission{
	RoleAdmin: {
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedPaths:   []string{"/admin/*"},
	},
	RoleViewer: {
		AllowedMethods: []string{"GET"},
		AllowedPaths:   []string{"/admin/cache", "/admin/regions"},
	},
}

// checkRolePermission reports whether role may call method on path.
func checkRolePermission(role, method, path string) bool {
	perm, ok := RolePermissions[role]
	if !ok {
		return false
	}
	if !slices.Contains(perm.AllowedMethods, method) {
		return false
	}
	return matchesPathPattern(path, perm.AllowedPaths)
}

func matchesPathPattern(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		if path == pattern {
			return true
		}
	}
	return false
}
