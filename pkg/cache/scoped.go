package cache

// ScopedKeyer wraps a Keyer with a prefix so that several callers can share
// one backend without colliding.
//
//	mirror := NewScopedKeyer(nil, "index:3f2a...:")
//	mirror.HTTPKey("simple:", "numpy") // "index:3f2a...:http:simple::numpy"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}
