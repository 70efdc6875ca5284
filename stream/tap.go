package stream

import "github.com/becomeliminal/nim-rag/core"

// Observer receives the side channel of one subscription. Nil funcs are skipped.
type Observer struct {
	OnNext     func(*core.ChatResponse)
	OnComplete func()
	OnError    func(error)
}

// Tap returns a stream that yields exactly what s yields. newObserver is
// called at the start of every subscription.
func Tap(s core.Stream, newObserver func() Observer) core.Stream {
	return func(yield func(*core.ChatResponse, error) bool) {
		obs := newObserver()
		for resp, err := range s {
			if err != nil {
				if obs.OnError != nil {
					obs.OnError(err)
				}
				yield(resp, err)
				return
			}
			if obs.OnNext != nil {
				obs.OnNext(resp)
			}
			if !yield(resp, nil) {
				return
			}
		}
		if obs.OnComplete != nil {
			obs.OnComplete()
		}
	}
}

// Of returns a stream that yields the given responses and completes.
func Of(responses ...*core.ChatResponse) core.Stream {
	return func(yield func(*core.ChatResponse, error) bool) {
		for _, r := range responses {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Fail returns a stream that yields the given responses and then err.
func Fail(err error, responses ...*core.ChatResponse) core.Stream {
	return func(yield func(*core.ChatResponse, error) bool) {
		for _, r := range responses {
			if !yield(r, nil) {
				return
			}
		}
		yield(nil, err)
	}
}

// Collect drains s, returning every response up to the first error.
func Collect(s core.Stream) ([]*core.ChatResponse, error) {
	var out []*core.ChatResponse
	for resp, err := range s {
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
	return out, nil
}
