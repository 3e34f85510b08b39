package auth

import "context"

type contextKey struct{}

// User is the acting household member for a request.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	HouseholdID string `json:"householdId"`
}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// CurrentUser returns the user stored by WithUser.
func CurrentUser(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(contextKey{}).(User)
	return u, ok
}

func UserID(ctx context.Context) string {
	u, ok := CurrentUser(ctx)
	if !ok {
		return ""
	}
	return u.ID
}
