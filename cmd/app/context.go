package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/inkwell/internal/policy"
)

type contextKey string

const actorContextKey = contextKey("actor")

func (app *application) contextSetActor(r *http.Request, actor policy.Actor) *http.Request {
	ctx := context.WithValue(r.Context(), actorContextKey, actor)
	return r.WithContext(ctx)
}

// contextGetActor returns the authenticated actor, or the anonymous actor
// when the request carried no credentials.
func (app *application) contextGetActor(r *http.Request) policy.Actor {
	actor, ok := r.Context().Value(actorContextKey).(policy.Actor)
	if !ok {
		return policy.Anonymous
	}
	return actor
}
