package cache

// ScopedKeyer prefixes every key of an inner [Keyer].
//
//	roomKeyer := NewScopedKeyer(NewDefaultKeyer(), "room:abc123:")
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
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) DepictionKey(opts DepictionKeyOpts) string {
	return k.prefix + k.inner.DepictionKey(opts)
}

func (k *ScopedKeyer) ElementsKey(docHash string, opts ElementsKeyOpts) string {
	return k.prefix + k.inner.ElementsKey(docHash, opts)
}

func (k *ScopedKeyer) RenderKey(elementsHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(elementsHash, opts)
}
