package retrieval

import (
	"context"
	"sort"

	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/pkg/store"
)

const defaultTopK = 5

// Coordinator walks a strategy chain until one succeeds. A strategy error
// advances the chain; an empty result set is a valid answer and stops it.
type Coordinator struct {
	chain  []Strategy
	topK   int
	logger logger.ILogger
}

func NewCoordinator(chain []Strategy, topK int, log logger.ILogger) *Coordinator {
	if topK <= 0 {
		topK = defaultTopK
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Coordinator{
		chain:  chain,
		topK:   topK,
		logger: log,
	}
}

// Retrieve never returns an error. When every strategy fails it returns an
// empty slice so callers can proceed without context.
func (c *Coordinator) Retrieve(ctx context.Context, query string, filter map[string]string) []store.RetrievedResult {
	for _, strategy := range c.chain {
		results, err := strategy.Attempt(ctx, query, c.topK, filter)
		if err != nil {
			c.logger.Warn("retrieval", "Strategy failed, falling through", map[string]interface{}{
				"backend": string(strategy.Name()),
				"error":   err.Error(),
			})
			continue
		}

		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
		if len(results) > c.topK {
			results = results[:c.topK]
		}

		c.logger.Debug("retrieval", "Strategy succeeded", map[string]interface{}{
			"backend": string(strategy.Name()),
			"results": len(results),
		})
		return results
	}

	c.logger.Error("retrieval", "All retrieval strategies exhausted", map[string]interface{}{
		"strategies": len(c.chain),
	})
	return []store.RetrievedResult{}
}

// Strategy returns the chain member for a backend, for callers that want
// to address one backend directly instead of walking the chain.
func (c *Coordinator) Strategy(name store.Backend) (Strategy, bool) {
	for _, strategy := range c.chain {
		if strategy.Name() == name {
			return strategy, true
		}
	}
	return nil, false
}

func (c *Coordinator) TopK() int {
	return c.topK
}
