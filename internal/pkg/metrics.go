package pkg

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_cache_lookups_total",
		Help: "Anonymous first-page cache lookups by result (hit/miss).",
	}, []string{"result"})

	FeedCacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_cache_invalidations_total",
		Help: "Feed cache invalidations triggered by writes.",
	})

	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "like_toggles_total",
		Help: "Like toggles by target (post/comment) and resulting state.",
	}, []string{"target", "state"})

	OutboxRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_outbox_relayed_total",
		Help: "Outbox events handed to the sender by status (sent/failed).",
	}, []string{"status"})
)
