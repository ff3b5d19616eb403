package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
)

// caller is the identity the gateway vouched for. Both fields are set
// together by Identity; tests may set them one at a time.
type caller struct {
	userID string
	role   enums.UserRole
}

type callerKey struct{}

func callerFrom(ctx context.Context) caller {
	if ctx == nil {
		return caller{}
	}
	c, _ := ctx.Value(callerKey{}).(caller)
	return c
}

func withCaller(ctx context.Context, update func(*caller)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	c := callerFrom(ctx)
	update(&c)
	return context.WithValue(ctx, callerKey{}, c)
}

func UserIDFromContext(ctx context.Context) string { return callerFrom(ctx).userID }

func RoleFromContext(ctx context.Context) enums.UserRole { return callerFrom(ctx).role }

// ActorFromContext returns the parsed caller id. ok is false when identity never ran.
func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(callerFrom(ctx).userID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return withCaller(ctx, func(c *caller) { c.userID = userID })
}

func WithRole(ctx context.Context, role enums.UserRole) context.Context {
	return withCaller(ctx, func(c *caller) { c.role = role })
}
