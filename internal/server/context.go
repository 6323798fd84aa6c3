package server

import (
	"context"

	auditdomain "github.com/himap/directory/internal/audit/domain"
	memberdomain "github.com/himap/directory/internal/member/domain"
	obscontext "github.com/himap/directory/internal/observability/context"
)

const contextCallerKey = "caller"

func withCaller(ctx context.Context, caller *memberdomain.Caller) context.Context {
	if caller == nil {
		return ctx
	}
	return obscontext.WithActor(ctx, string(auditdomain.ActorTypeUser), caller.Identity.ID)
}
