// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package keypad implements the 16 key hexadecimal input device.
//
// Key state is written by an input collaborator, typically on its own
// goroutine, and read by the CPU. All methods are safe for concurrent use.
package keypad

import (
	"context"
	"sync"
)

const KEY_COUNT = 16 // Number of keys.

// Keypad is the state of the hexadecimal keys.
// The zero value is a keypad with no keys pressed.
type Keypad struct {
	mutex   sync.Mutex
	keys    [KEY_COUNT]bool
	changed chan struct{} // Closed and replaced on every state change.
}

// notify wakes all waiters. Must be called with the mutex held.
func (kp *Keypad) notify() {
	if kp.changed != nil {
		close(kp.changed)
		kp.changed = nil
	}
}

// SetKey records a key press or release. Only the low nibble of index is used.
func (kp *Keypad) SetKey(index byte, pressed bool) {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()

	key := &kp.keys[index&0xf]
	if *key == pressed {
		return
	}

	*key = pressed
	kp.notify()
}

// Key returns the state of a key. Only the low nibble of index is used.
func (kp *Keypad) Key(index byte) bool {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()

	return kp.keys[index&0xf]
}

// pressed returns the lowest pressed key. Must be called with the mutex held.
func (kp *Keypad) pressed() (index byte, ok bool) {
	for n, key := range kp.keys {
		if key {
			return byte(n), true
		}
	}
	return
}

// Pressed returns the lowest numbered key currently pressed.
func (kp *Keypad) Pressed() (index byte, ok bool) {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()

	return kp.pressed()
}

// Keys returns a copy of all key states.
func (kp *Keypad) Keys() (keys [KEY_COUNT]bool) {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()

	return kp.keys
}

// WaitForKey blocks until a key is pressed, and returns the lowest numbered
// pressed key. If the context is done first, its error is returned.
func (kp *Keypad) WaitForKey(ctx context.Context) (index byte, err error) {
	for {
		kp.mutex.Lock()
		key, ok := kp.pressed()
		if ok {
			kp.mutex.Unlock()
			index = key
			return
		}
		if kp.changed == nil {
			kp.changed = make(chan struct{})
		}
		changed := kp.changed
		kp.mutex.Unlock()

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-changed:
		}
	}
}

// Reset releases all keys.
func (kp *Keypad) Reset() {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()

	clear(kp.keys[:])
	kp.notify()
}
