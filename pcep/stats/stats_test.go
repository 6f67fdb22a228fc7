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

package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volta-networks/pcep/pcep/protocol"
)

func Test_jsonStatsCounters(t *testing.T) {
	s := NewJSONStats()
	s.IncTX(protocol.MessageOpen)
	s.IncTX(protocol.MessageKeepAlive)
	s.IncTX(protocol.MessageKeepAlive)
	s.IncRX(protocol.MessageOpen)
	s.IncRXObject(protocol.ObjectClassOpen)
	s.IncEvent(EventPCEConnect)
	s.SetSessionState(1, 3)
	s.Snapshot()

	report := s.report.toMap()
	assert.Equal(t, int64(1), report["pcep.pcc.tx.OPEN"])
	assert.Equal(t, int64(2), report["pcep.pcc.tx.KEEPALIVE"])
	assert.Equal(t, int64(1), report["pcep.pcc.rx.OPEN"])
	assert.Equal(t, int64(1), report["pcep.pcc.rxobj.OPEN"])
	assert.Equal(t, int64(1), report["pcep.pcc.event.pce_connect"])
	assert.Equal(t, int64(3), report["pcep.pcc.session.state.1"])
}

func Test_jsonStatsSnapshotIsolation(t *testing.T) {
	s := NewJSONStats()
	s.IncTX(protocol.MessageOpen)
	s.Snapshot()
	// counters bumped after the snapshot must not leak into the report
	s.IncTX(protocol.MessageOpen)
	report := s.report.toMap()
	assert.Equal(t, int64(1), report["pcep.pcc.tx.OPEN"])

	s.Reset()
	s.Snapshot()
	report = s.report.toMap()
	assert.Equal(t, int64(0), report["pcep.pcc.tx.OPEN"])
}

func Test_handleRequest(t *testing.T) {
	s := NewJSONStats()
	s.IncRX(protocol.MessagePCRep)
	s.Snapshot()

	rec := httptest.NewRecorder()
	s.handleRequest(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var counters Counters
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counters))
	assert.Equal(t, int64(1), counters["pcep.pcc.rx.PCREP"])
}

func Test_fetchCounters(t *testing.T) {
	s := NewJSONStats()
	s.IncEvent(EventPCCConnect)
	s.Snapshot()
	srv := httptest.NewServer(http.HandlerFunc(s.handleRequest))
	defer srv.Close()

	counters, err := FetchCounters(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counters["pcep.pcc.event.pcc_connect"])

	_, err = FetchCounters("http://127.0.0.1:1/nothing-there")
	require.Error(t, err)
}

func Test_flattenKey(t *testing.T) {
	assert.Equal(t, "pcep_pcc_tx_open", flattenKey("pcep.pcc.tx.OPEN"))
	assert.Equal(t, "pcep_pcc_event_pce_connect", flattenKey("pcep.pcc.event.pce-connect"))
}

func Test_nopStats(t *testing.T) {
	s := NewNopStats()
	// must be safe to call everything on the no-op implementation
	s.IncRX(protocol.MessageOpen)
	s.IncTX(protocol.MessageOpen)
	s.IncRXObject(protocol.ObjectClassRP)
	s.IncEvent(EventPCCConnect)
	s.SetSessionState(1, 1)
	s.Snapshot()
	s.Reset()
}
