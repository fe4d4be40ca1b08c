package controllers

import (
	"context"

	"github.com/equipe-visionarios/imoveis-api/models"
)

type ContextKey string

const IdentityKey = ContextKey("identity")

func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(models.Identity)
	return id, ok
}
