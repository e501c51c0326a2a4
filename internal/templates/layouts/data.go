// Package layouts carries the data every page shell needs (CSRF token,
// active navigation path, request id) from handlers to page rendering
// through context.Context, so page data structs stay free of it.
//
// Data flow: Middleware → Echo Context → LayoutInjector → Go Context → page
package layouts

import "context"

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyCSRFToken  ctxKey = "layout_csrf_token"
	keyActivePath ctxKey = "layout_active_path"
	keyRequestID  ctxKey = "layout_request_id"
)

// Data is the layout view of a request, read back from the context.
type Data struct {
	CSRFToken  string
	ActivePath string
	RequestID  string
}

// SetCSRFToken stores the CSRF token for hidden form fields.
func SetCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, keyCSRFToken, token)
}

// GetCSRFToken returns the CSRF token, or "".
func GetCSRFToken(ctx context.Context) string {
	v, _ := ctx.Value(keyCSRFToken).(string)
	return v
}

// SetActivePath stores the request path used to highlight navigation.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// GetActivePath returns the request path, or "".
func GetActivePath(ctx context.Context) string {
	v, _ := ctx.Value(keyActivePath).(string)
	return v
}

// SetRequestID stores the request id shown on error pages.
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// GetRequestID returns the request id, or "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// FromContext collects all layout values.
func FromContext(ctx context.Context) Data {
	return Data{
		CSRFToken:  GetCSRFToken(ctx),
		ActivePath: GetActivePath(ctx),
		RequestID:  GetRequestID(ctx),
	}
}
