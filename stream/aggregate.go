package stream

import (
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/becomeliminal/nim-rag/core"
)

// Option configures Aggregate.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used to report stream errors.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Aggregate folds the fragments of s into one AssistantMessage while passing
// every fragment through. onComplete is called synchronously once per
// subscription that completes without error. Text increments are concatenated
// in arrival order and metadata keys are merged last-write-wins.
//
// A subscription that ends in an error is logged and onComplete is skipped.
func Aggregate(s core.Stream, onComplete func(core.AssistantMessage), opts ...Option) core.Stream {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger.Named("aggregator")

	return Tap(s, func() Observer {
		var text strings.Builder
		metadata := map[string]any{}

		return Observer{
			OnNext: func(resp *core.ChatResponse) {
				if resp == nil {
					return
				}
				text.WriteString(resp.Text)
				if len(resp.Metadata) > 0 {
					metadata = lo.Assign(metadata, resp.Metadata)
				}
			},
			OnComplete: func() {
				onComplete(core.AssistantMessage{
					Content:  text.String(),
					Metadata: metadata,
				})
			},
			OnError: func(err error) {
				logger.Error("aggregation error", zap.Error(err))
			},
		}
	})
}
