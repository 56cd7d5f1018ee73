// File: utils/constants.go
package utils

import "time"

// ResourceCachePrefix is the prefix used for Redis resource metadata keys.
const ResourceCachePrefix = "resource:"

// DefaultResourceCacheTTL applies when RESOURCE_CACHE_TTL_MINUTES is unset.
const DefaultResourceCacheTTL = 10 * time.Minute

// AuthContextKey is the gin context key holding the caller's models.AuthContext.
const AuthContextKey = "authContext"
