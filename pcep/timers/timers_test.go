/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package timers

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects expirations in delivery order
type recorder struct {
	mu    sync.Mutex
	fired []int32
	data  []interface{}
}

func (r *recorder) handle(data interface{}, id int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, id)
	r.data = append(r.data, data)
}

func (r *recorder) ids() []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int32(nil), r.fired...)
}

func Test_createBeforeStart(t *testing.T) {
	s := NewService()
	_, err := s.CreateTimer(1, nil)
	require.ErrorIs(t, err, ErrNotRunning)
}

func Test_doubleStart(t *testing.T) {
	r := &recorder{}
	s := NewService()
	require.NoError(t, s.Start(r.handle))
	defer s.Stop()
	require.NoError(t, s.Start(r.handle))

	require.Error(t, NewService().Start(nil))
}

func Test_expireOrder(t *testing.T) {
	r := &recorder{}
	s := NewService()
	require.NoError(t, s.Start(r.handle))
	defer s.Stop()

	// same creation instant, expiry must come out in non-decreasing delay
	// order with ties broken by insertion
	id3, err := s.CreateTimer(3, "c")
	require.NoError(t, err)
	id1a, err := s.CreateTimer(1, "a")
	require.NoError(t, err)
	id1b, err := s.CreateTimer(1, "b")
	require.NoError(t, err)
	id2, err := s.CreateTimer(2, "d")
	require.NoError(t, err)

	// drive expiry directly instead of sleeping through the delays
	s.expire(time.Now().Add(5 * time.Second))
	assert.Equal(t, []int32{id1a, id1b, id2, id3}, r.ids())
	r.mu.Lock()
	assert.Equal(t, []interface{}{"a", "b", "d", "c"}, r.data)
	r.mu.Unlock()
}

func Test_expirePartial(t *testing.T) {
	r := &recorder{}
	s := NewService()
	require.NoError(t, s.Start(r.handle))
	defer s.Stop()

	idShort, err := s.CreateTimer(1, nil)
	require.NoError(t, err)
	idLong, err := s.CreateTimer(60, nil)
	require.NoError(t, err)

	s.expire(time.Now().Add(2 * time.Second))
	assert.Equal(t, []int32{idShort}, r.ids())
	// the long timer is still pending and cancellable
	assert.True(t, s.CancelTimer(idLong))
}

func Test_cancelIdempotence(t *testing.T) {
	s := NewService()
	require.NoError(t, s.Start(func(interface{}, int32) {}))
	defer s.Stop()

	id, err := s.CreateTimer(60, nil)
	require.NoError(t, err)
	assert.True(t, s.CancelTimer(id))
	assert.False(t, s.CancelTimer(id))
	assert.False(t, s.CancelTimer(12345))
}

func Test_cancelExpired(t *testing.T) {
	r := &recorder{}
	s := NewService()
	require.NoError(t, s.Start(r.handle))
	defer s.Stop()

	id, err := s.CreateTimer(1, nil)
	require.NoError(t, err)
	s.expire(time.Now().Add(2 * time.Second))
	require.Equal(t, []int32{id}, r.ids())
	assert.False(t, s.CancelTimer(id))
}

func Test_reset(t *testing.T) {
	r := &recorder{}
	s := NewService()
	require.NoError(t, s.Start(r.handle))
	defer s.Stop()

	id, err := s.CreateTimer(2, nil)
	require.NoError(t, err)
	// reset pushes expiry forward by the original duration
	time.Sleep(50 * time.Millisecond)
	assert.True(t, s.ResetTimer(id))
	s.expire(time.Now().Add(1 * time.Second))
	assert.Empty(t, r.ids())
	s.expire(time.Now().Add(3 * time.Second))
	assert.Equal(t, []int32{id}, r.ids())

	assert.False(t, s.ResetTimer(id))
}

func Test_idWrap(t *testing.T) {
	s := NewService()
	require.NoError(t, s.Start(func(interface{}, int32) {}))
	defer s.Stop()

	s.mu.Lock()
	s.nextID = math.MaxInt32 - 1
	s.mu.Unlock()

	id1, err := s.CreateTimer(60, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), id1)
	// next allocation wraps and skips nothing since low ids are free
	id2, err := s.CreateTimer(60, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), id2)
}

func Test_idWrapSkipsBusy(t *testing.T) {
	s := NewService()
	require.NoError(t, s.Start(func(interface{}, int32) {}))
	defer s.Stop()

	id1, err := s.CreateTimer(60, nil)
	require.NoError(t, err)
	require.Equal(t, int32(1), id1)

	s.mu.Lock()
	s.nextID = math.MaxInt32
	s.mu.Unlock()
	// id 1 is still pending, the wrap must not hand it out again
	id2, err := s.CreateTimer(60, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), id2)
}

func Test_stopFreesTimers(t *testing.T) {
	s := NewService()
	require.NoError(t, s.Start(func(interface{}, int32) {}))
	id, err := s.CreateTimer(60, nil)
	require.NoError(t, err)
	s.Stop()
	assert.False(t, s.CancelTimer(id))
	_, err = s.CreateTimer(1, nil)
	require.ErrorIs(t, err, ErrNotRunning)
	// stopping again is harmless
	s.Stop()
}

func Test_liveExpiry(t *testing.T) {
	r := &recorder{}
	s := NewService()
	require.NoError(t, s.Start(r.handle))
	defer s.Stop()

	id, err := s.CreateTimer(1, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		ids := r.ids()
		return len(ids) == 1 && ids[0] == id
	}, 3*time.Second, 100*time.Millisecond)
}
