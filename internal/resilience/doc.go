// Package resilience groups the fault tolerance helpers used around news
// sources and chat platform APIs: per-remote circuit breakers and bounded
// retries.
//
//	b := circuitbreaker.New(circuitbreaker.SourceConfig("BBC Tech"))
//	items, err := circuitbreaker.Do(b, func() ([]entity.NewsItem, error) {
//	    return fetchFeed(ctx)
//	})
//
//	err = retry.WithBackoff(ctx, retry.SourceFetchConfig(500*time.Millisecond), func() error {
//	    return refresh(ctx)
//	})
package resilience
