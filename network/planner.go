/*
 * Spswitch - A Shortest Path Switching Controller
 *
 * Copyright (C) 2015-2019 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package network

import (
	"fmt"

	"github.com/superkkt/spswitch/graph"

	lru "github.com/hashicorp/golang-lru"
)

// pathCache memoises shortest paths by (source, destination) switch pair. The topology purges it on
// every mutation, so a cached path is always the same as a freshly computed one.
type pathCache struct {
	cache *lru.Cache
}

// newPathCache returns nil if size is not positive, which disables the cache.
func newPathCache(size int) *pathCache {
	if size <= 0 {
		return nil
	}
	c, err := lru.New(size)
	if err != nil {
		panic(fmt.Sprintf("failed to init a LRU path cache: %v", err))
	}

	return &pathCache{cache: c}
}

type pathKey struct {
	src, dst uint64
}

func (r *pathCache) get(src, dst uint64) (path []uint64, ok bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.cache.Get(pathKey{src, dst})
	if !ok {
		return nil, false
	}

	return v.([]uint64), true
}

func (r *pathCache) add(src, dst uint64, path []uint64) {
	if r == nil {
		return
	}
	// Update if the key already exists.
	r.cache.Add(pathKey{src, dst}, path)
}

func (r *pathCache) purge() {
	if r == nil {
		return
	}
	r.cache.Purge()
}

// toDPIDs converts a path of switch vertexies into datapath IDs.
func toDPIDs(path []graph.NodeID) []uint64 {
	if path == nil {
		return nil
	}

	result := make([]uint64, 0, len(path))
	for _, v := range path {
		dpid, ok := v.DPID()
		if !ok {
			panic(fmt.Sprintf("non-switch vertex on a path: %v", v))
		}
		result = append(result, dpid)
	}

	return result
}
