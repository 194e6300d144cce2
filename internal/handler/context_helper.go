package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/class-record-api/internal/middleware"
	"github.com/acadsys/class-record-api/internal/models"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

type sectionOwnershipChecker interface {
	OwnsSection(ctx context.Context, teacherID, teachingLoadDetailID string) (bool, error)
}

// ensureSectionAccess blocks teachers from touching class sections outside
// their own teaching load. Admins pass through.
func ensureSectionAccess(ctx context.Context, claims *models.JWTClaims, sections sectionOwnershipChecker, teachingLoadDetailID string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleTeacher {
		return nil
	}
	owns, err := sections.OwnsSection(ctx, claims.UserID, teachingLoadDetailID)
	if err != nil {
		return err
	}
	if !owns {
		return appErrors.Clone(appErrors.ErrForbidden, "class section is not part of your teaching load")
	}
	return nil
}
