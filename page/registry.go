package page

import (
	"fmt"
	"slices"
	"sync"
)


// A name -> handler table populated at startup, e.g. merge strategies and presenters.
// A name binds once. Registering a bound name is a conflict, never an overwrite.
type Registry[T any] struct {
	stateLock sync.Mutex
	handlers  map[string]T
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		handlers: map[string]T{},
	}
}

func (self *Registry[T]) Register(name string, handler T) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if _, ok := self.handlers[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	self.handlers[name] = handler
	return nil
}

// panics on conflict. For built in tables only.
func (self *Registry[T]) MustRegister(name string, handler T) {
	if err := self.Register(name, handler); err != nil {
		panic(err)
	}
}

func (self *Registry[T]) Get(name string) (T, bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	handler, ok := self.handlers[name]
	return handler, ok
}

func (self *Registry[T]) Names() []string {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	names := make([]string, 0, len(self.handlers))
	for name := range self.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
