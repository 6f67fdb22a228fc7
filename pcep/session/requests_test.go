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

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volta-networks/pcep/pcep/protocol"
)

func Test_resolveIsOneShot(t *testing.T) {
	rr := newRequestResponse(nil, 1, 1000)
	require.Equal(t, ResponseWaiting, rr.Status())

	msg := protocol.NewPCRepMessage(protocol.NewRP(0, false, false, false, 1))
	assert.True(t, rr.resolve(ResponseReady, []*protocol.Message{msg}))
	assert.Equal(t, ResponseReady, rr.Status())
	require.Len(t, rr.Responses(), 1)
	assert.False(t, rr.ReceivedAt().IsZero())

	// a later transition must not take
	assert.False(t, rr.resolve(ResponseTimedOut, nil))
	assert.Equal(t, ResponseReady, rr.Status())
	require.Len(t, rr.Responses(), 1)
}

func Test_queryReportsChanges(t *testing.T) {
	rr := newRequestResponse(nil, 2, 1000)
	assert.False(t, rr.Query())
	rr.resolve(ResponseReady, nil)
	assert.True(t, rr.Query())
	// no further change after the first observation
	assert.False(t, rr.Query())
}

func Test_waitTimesOut(t *testing.T) {
	rr := newRequestResponse(nil, 3, 100)
	start := time.Now()
	assert.False(t, rr.Wait())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, ResponseTimedOut, rr.Status())
	// a late response loses the race and changes nothing
	assert.False(t, rr.resolve(ResponseReady, nil))
	assert.Equal(t, ResponseTimedOut, rr.Status())
}

func Test_waitSeesConcurrentResolve(t *testing.T) {
	rr := newRequestResponse(nil, 4, 5000)
	go func() {
		time.Sleep(50 * time.Millisecond)
		rr.resolve(ResponseReady, nil)
	}()
	assert.True(t, rr.Wait())
	assert.Equal(t, ResponseReady, rr.Status())
}
