package auth

import "context"

type ctxKey string

const (
	ctxKeySub      ctxKey = "sub"
	ctxKeyVerified ctxKey = "email_verified"
)

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func WithEmailVerified(ctx context.Context, ok bool) context.Context {
	return context.WithValue(ctx, ctxKeyVerified, ok)
}

func EmailVerifiedFromContext(ctx context.Context) bool {
	if v := ctx.Value(ctxKeyVerified); v != nil {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
