package dedupe

import "time"

// Option applies a configuration option to the Grouper.
type Option func(*Grouper)

// WithWindow sets how far back achievements are grouped.
func WithWindow(window time.Duration) Option {
	return func(g *Grouper) {
		if window > 0 {
			g.window = window
		}
	}
}

// WithMaxWords sets how many normalized title tokens form the key.
func WithMaxWords(n int) Option {
	return func(g *Grouper) {
		if n > 0 {
			g.maxWords = n
		}
	}
}
