package reactive

// Source names where a delegate resolved to.
type Source string

const (
	FromDefinition Source = "definition"
	FromHost       Source = "host"
)

// delegate is one output-binding capability with two slots: the widget
// definition's implementation, and the host default used when the
// definition has none.
type delegate[F any] struct {
	own      F
	hasOwn   bool
	fallback F
}

func newDelegate[F any](own F, hasOwn bool, fallback F) delegate[F] {
	return delegate[F]{own: own, hasOwn: hasOwn, fallback: fallback}
}

func (d delegate[F]) resolve() (F, Source) {
	if d.hasOwn {
		return d.own, FromDefinition
	}
	return d.fallback, FromHost
}

func (d delegate[F]) fn() F {
	f, _ := d.resolve()
	return f
}
