// Package metrics defines the Prometheus collectors for forum
// activity. The /metrics endpoint itself is registered by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VotesCast counts vote operations by resulting value.
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "den_votes_cast_total",
		Help: "Vote operations processed, labeled by the resulting vote value.",
	}, []string{"value"})

	// PostsCreated counts created posts by author kind.
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "den_posts_created_total",
		Help: "Posts created, labeled by author kind (account or persona).",
	}, []string{"author"})

	// CommentsCreated counts created comments by author kind.
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "den_comments_created_total",
		Help: "Comments created, labeled by author kind (account or persona).",
	}, []string{"author"})

	// StalePersonaResets counts persona selections dropped by the
	// identity resolver because ownership no longer checked out.
	StalePersonaResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "den_stale_persona_resets_total",
		Help: "Session persona selections cleared after failing ownership validation.",
	})
)

// AuthorKind returns the label value for an author-kind metric.
func AuthorKind(isPersona bool) string {
	if isPersona {
		return "persona"
	}
	return "account"
}
