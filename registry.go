// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mosaic

import "sync"

// registryKey identifies the layer and camera an effect swaps materials on.
type registryKey struct {
	layer  int
	camera string
}

// Registry tracks the enabled effects of one composition root. Two
// effects enabled on the same layer and camera interleave their material
// swaps; the registry does not prevent that, it warns about it.
//
// Registry is safe for concurrent use. The zero value is ready to use.
type Registry struct {
	mu      sync.Mutex
	enabled map[registryKey][]*Effect
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// register adds e under k. It returns how many other effects share k and
// logs one warning when that number is not zero.
func (r *Registry) register(e *Effect, k registryKey) int {
	r.mu.Lock()
	if r.enabled == nil {
		r.enabled = make(map[registryKey][]*Effect)
	}
	for _, other := range r.enabled[k] {
		if other == e {
			r.mu.Unlock()
			return len(r.enabled[k]) - 1
		}
	}
	r.enabled[k] = append(r.enabled[k], e)
	others := len(r.enabled[k]) - 1
	r.mu.Unlock()

	if others > 0 {
		Logger().Warn("mosaic: multiple effects enabled on the same layer and camera; results are undefined",
			"layer", k.layer, "camera", k.camera, "effects", others+1)
	}
	return others
}

// unregister removes e from k.
func (r *Registry) unregister(e *Effect, k registryKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.enabled[k]
	for i, other := range list {
		if other == e {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.enabled, k)
		return
	}
	r.enabled[k] = list
}

// Enabled returns how many effects are enabled on layer and camera.
func (r *Registry) Enabled(layer int, camera string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.enabled[registryKey{layer, camera}])
}

// Len returns the total number of enabled effects.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, list := range r.enabled {
		n += len(list)
	}
	return n
}
