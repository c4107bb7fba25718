package middlewarectx

import (
	"context"

	"github.com/veilnet/confighub/internal/models"
)

// Service описывает интерфейс проверки токена сессии.
type Service interface {
	Validate(ctx context.Context, tok string) (*models.Session, error)
}
