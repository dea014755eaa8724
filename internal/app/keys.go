package app

import "github.com/nhle/todo-client/internal/keys"

// KeyMap is re-exported from the keys package so the root model and the
// views share one set of bindings.
type KeyMap = keys.KeyMap

// DefaultKeyMap delegates to keys.DefaultKeyMap.
func DefaultKeyMap() *KeyMap {
	return keys.DefaultKeyMap()
}
