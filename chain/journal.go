package chain

import "github.com/ruteri/account-registry/interfaces"

// Set assigns v to *ptr and journals the previous value.
func Set[T any](host interfaces.Host, ptr *T, v T) {
	prev := *ptr
	*ptr = v
	host.Journal(func() { *ptr = prev })
}

// SetKey assigns m[k] = v and journals the previous entry.
func SetKey[K comparable, V any](host interfaces.Host, m map[K]V, k K, v V) {
	prev, existed := m[k]
	m[k] = v
	host.Journal(func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

// Push appends v to *s and journals the truncation.
func Push[T any](host interfaces.Host, s *[]T, v T) {
	n := len(*s)
	*s = append(*s, v)
	host.Journal(func() { *s = (*s)[:n] })
}
