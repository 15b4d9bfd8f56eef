package config

// SetGetenv replaces the environment lookup used for the library override.
func (l *Loader) SetGetenv(getenv func(string) string) {
	l.getenv = getenv
}
