package hooks

import (
	"context"
	"net/http"
	"strings"

	"github.com/n-r-w/shopcache"
)

// NewsletterHook captures newsletter signups. It is public and invalidates nothing.
type NewsletterHook struct {
	d         Deps
	subscribe shopcache.Mutation[NewsletterInput, struct{}]
}

// NewNewsletter creates the newsletter hook.
func NewNewsletter(d Deps) *NewsletterHook {
	return &NewsletterHook{
		d: d,
		subscribe: shopcache.Mutation[NewsletterInput, struct{}]{
			Name: "newsletter signup",
			Execute: writer[NewsletterInput, struct{}](d.API, http.MethodPost,
				func(NewsletterInput) string { return "/api/newsletter" },
				func(in NewsletterInput) any { return in }),
		},
	}
}

// Subscribe sends POST /api/newsletter.
func (h *NewsletterHook) Subscribe(ctx context.Context, email string) error {
	_, err := shopcache.Mutate(ctx, h.d.Executor, h.subscribe, NewsletterInput{Email: strings.TrimSpace(email)})

	return err
}
