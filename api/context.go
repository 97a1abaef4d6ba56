package api

import (
	"context"
)

type keyType string

const adminSubjectKey keyType = "adminSubject"

// ctxWithAdminSubject records who opened the admin session for this request
func ctxWithAdminSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, adminSubjectKey, subject)
}

// ctxGetAdminSubject returns "" when the request carried no admin session
func ctxGetAdminSubject(ctx context.Context) string {
	if subject, ok := ctx.Value(adminSubjectKey).(string); ok {
		return subject
	}
	return ""
}
