package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/grocery-store/internal/apperror"
	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/dto"
	"github.com/prperemyshlev/grocery-store/internal/service"
	"go.uber.org/zap"
)

const userContextKey = "user"

// CurrentUser returns the user attached by RequireAuth or OptionalAuth.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", apperror.Unauthenticated("no token provided")
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apperror.Unauthenticated("invalid authorization header format")
	}
	return strings.TrimSpace(token), nil
}

// RequireAuth verifies the bearer token and attaches the stored user record.
func RequireAuth(authService service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid bearer token is present. A missing
// or rejected token passes through anonymously; any other failure aborts the request.
func OptionalAuth(authService service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.Next()
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(userContextKey, user)
		case apperror.KindOf(err) != apperror.KindUnauthenticated:
			respondError(c, logger, err)
			return
		}
		c.Next()
	}
}

// RequireRole passes only users whose stored role is one of roles. Must run after RequireAuth.
func RequireRole(logger *zap.Logger, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			respondError(c, logger, apperror.Unauthenticated("authentication required"))
			return
		}
		if !user.Role.In(roles...) {
			respondError(c, logger, apperror.Forbidden("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// RequireStaff allows admins and assistants.
func RequireStaff(logger *zap.Logger) gin.HandlerFunc {
	return RequireRole(logger, domain.RoleAdmin, domain.RoleAssistant)
}

func RequireCapability(logger *zap.Logger, capability domain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			respondError(c, logger, apperror.Unauthenticated("authentication required"))
			return
		}
		if !user.Role.Can(capability) {
			respondError(c, logger, apperror.Forbidden("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// RecoveryMiddleware turns panics into a generic 500.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	})
}

func NotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "route not found"})
}
