package logger

import "sync"

// Component names used across authkit.
const (
	ComponentAuth   = "auth"
	ComponentHTTP   = "http"
	ComponentStore  = "store"
	ComponentServer = "server"
)

// Components lists the loggers RegisterDefaults seeds when given no names.
var Components = []string{ComponentAuth, ComponentHTTP, ComponentStore, ComponentServer}

var (
	namedMu sync.RWMutex
	named   = map[string]*Logger{}
)

// Register binds l to name, replacing any earlier binding.
func Register(name string, l *Logger) {
	namedMu.Lock()
	named[name] = l
	namedMu.Unlock()
}

// Get returns the logger bound to name. Unbound names get the global logger
// tagged with the component, so callers never receive nil.
func Get(name string) *Logger {
	namedMu.RLock()
	l, ok := named[name]
	namedMu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterDefaults derives component loggers from the current global logger.
// Call it again after SetGlobalLogger so components pick up the new config.
func RegisterDefaults(names ...string) {
	if len(names) == 0 {
		names = Components
	}
	global := GetGlobalLogger()
	for _, name := range names {
		Register(name, global.WithComponent(name))
	}
}
