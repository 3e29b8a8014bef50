package permissions

import (
	"net/http"
	"strings"

	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const sessionContextKey = "session"

// Surface selects which sessions an authenticated route group accepts.
type Surface int

const (
	// SurfaceAdmin accepts MASTER sessions only.
	SurfaceAdmin Surface = iota
	// SurfaceStation accepts station sessions only.
	SurfaceStation
	// SurfaceAny accepts both kinds of session.
	SurfaceAny
)

// BearerToken extracts the session token from the Authorization header,
// falling back to the token query parameter for EventSource clients.
func BearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}
	token := strings.TrimSpace(c.Query("token"))
	return token, token != ""
}

// AuthMiddleware validates session JWTs and confirms the account or station is still active.
func AuthMiddleware(db *gorm.DB, secret string, surface Surface) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		claims, errJWT := security.ParseSessionToken(secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		switch {
		case claims.Role == RoleMaster:
			if surface == SurfaceStation {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "station session required"})
				return
			}
			var admin models.Admin
			if errFind := db.WithContext(c.Request.Context()).Select("id", "active").First(&admin, claims.AdminID).Error; errFind != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
				return
			}
			if !admin.Active {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin account is disabled"})
				return
			}
		case IsStationRole(claims.Role):
			if surface == SurfaceAdmin {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin session required"})
				return
			}
			var station models.RadioStation
			if errFind := db.WithContext(c.Request.Context()).Select("id", "is_active").
				Where("id = ?", claims.StationID).First(&station).Error; errFind != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "station not found"})
				return
			}
			if !station.IsActive {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "station is disabled"})
				return
			}
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(sessionContextKey, claims)
		c.Next()
	}
}

// Middleware enforces the capability registered for the matched route.
// Routes without a definition are denied.
func Middleware() gin.HandlerFunc {
	definitionMap := DefinitionMap()

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		path := c.FullPath()
		if path == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		def, ok := definitionMap[Key(c.Request.Method, path)]
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		claims, okClaims := Session(c)
		if !okClaims {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
			return
		}
		if !claims.HasCapability(def.Capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}

// Session returns the claims stored by AuthMiddleware.
func Session(c *gin.Context) (*security.SessionClaims, bool) {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*security.SessionClaims)
	return claims, ok && claims != nil
}

// Scope limits station sessions to their own station; MASTER sessions are unrestricted.
func Scope(c *gin.Context) inventory.Scope {
	claims, ok := Session(c)
	if !ok || claims.Role == RoleMaster {
		return inventory.Scope{}
	}
	return inventory.Scope{StationID: claims.StationID}
}

// Actor names the session for audit columns such as distributed_by.
func Actor(c *gin.Context) string {
	claims, ok := Session(c)
	if !ok {
		return ""
	}
	if claims.Username != "" {
		return claims.Username
	}
	return strings.ToLower(claims.Role) + "@" + claims.StationID
}
