package config

// Backend persists settings between runs. Store receives the key's typed
// value (string, int, bool or float64); Lookup hands back its text form,
// which the key's parser reads again. Remove on an unset key is not an error.
type Backend interface {
	Lookup(key string) (raw string, ok bool, err error)
	Store(key string, value any) error
	Remove(key string) error
}
