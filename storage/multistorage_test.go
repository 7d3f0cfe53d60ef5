package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/account-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockBackend is a testify mock of interfaces.StorageBackend.
type mockBackend struct {
	mock.Mock
	name string
}

func (m *mockBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	args := m.Called(ctx, id, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	args := m.Called(ctx, data, contentType)
	return args.Get(0).(interfaces.ContentID), args.Error(1)
}

func (m *mockBackend) Available(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *mockBackend) Name() string {
	return m.name
}

func (m *mockBackend) LocationURI() string {
	return "mock://" + m.name
}

// replica describes how one backend behaves in a test case. A nil result
// with a nil err means the call is not expected.
type replica struct {
	offline bool
	data    []byte
	id      interfaces.ContentID
	err     error
}

var (
	payload   = []byte("checkpoint payload")
	payloadID = interfaces.ComputeID(payload)
	errBroken = errors.New("broken replica")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func replicas(t *testing.T, setup func(m *mockBackend, r replica), rs ...replica) []interfaces.StorageBackend {
	t.Helper()
	backends := make([]interfaces.StorageBackend, len(rs))
	for i, r := range rs {
		m := &mockBackend{name: string(rune('a' + i))}
		m.On("Available", mock.Anything).Return(!r.offline).Maybe()
		if !r.offline {
			setup(m, r)
		}
		backends[i] = m
		t.Cleanup(func() { m.AssertExpectations(t) })
	}
	return backends
}

func TestMultiStorageBackend_Available(t *testing.T) {
	cases := map[string]struct {
		online []bool
		want   bool
	}{
		"all online":    {[]bool{true, true}, true},
		"one online":    {[]bool{false, true, false}, true},
		"all offline":   {[]bool{false, false}, false},
		"empty replica": {nil, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rs := make([]replica, len(tc.online))
			for i, on := range tc.online {
				rs[i] = replica{offline: !on}
			}
			multi := NewMultiStorageBackend(replicas(t, func(*mockBackend, replica) {}, rs...), discardLogger())
			assert.Equal(t, tc.want, multi.Available(context.Background()))
		})
	}
}

func TestMultiStorageBackend_Fetch(t *testing.T) {
	fetch := func(m *mockBackend, r replica) {
		if r.data != nil || r.err != nil {
			m.On("Fetch", mock.Anything, payloadID, interfaces.CheckpointType).Return(r.data, r.err).Once()
		}
	}

	cases := []struct {
		name     string
		replicas []replica
		wantErr  error
	}{
		{
			name:     "first replica serves",
			replicas: []replica{{data: payload}, {}},
		},
		{
			name:     "falls through a broken replica",
			replicas: []replica{{err: errBroken}, {data: payload}},
		},
		{
			name:     "falls through tampered content",
			replicas: []replica{{data: []byte("tampered")}, {data: payload}},
		},
		{
			name:     "skips offline replicas",
			replicas: []replica{{offline: true}, {data: payload}},
		},
		{
			name:     "every replica broken",
			replicas: []replica{{err: errBroken}, {err: errBroken}},
			wantErr:  errBroken,
		},
		{
			name:     "tampered everywhere",
			replicas: []replica{{data: []byte("tampered")}},
			wantErr:  ErrContentMismatch,
		},
		{
			name:     "missing everywhere",
			replicas: []replica{{err: interfaces.ErrContentNotFound}, {offline: true}},
			wantErr:  interfaces.ErrContentNotFound,
		},
		{
			name:     "nothing online",
			replicas: []replica{{offline: true}},
			wantErr:  interfaces.ErrBackendUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			multi := NewMultiStorageBackend(replicas(t, fetch, tc.replicas...), nil)
			data, err := multi.Fetch(context.Background(), payloadID, interfaces.CheckpointType)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, data)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, payload, data)
		})
	}
}

func TestMultiStorageBackend_Store(t *testing.T) {
	store := func(m *mockBackend, r replica) {
		m.On("Store", mock.Anything, payload, interfaces.CheckpointType).Return(r.id, r.err).Once()
	}

	cases := []struct {
		name     string
		replicas []replica
		wantErr  bool
	}{
		{
			name:     "stored everywhere",
			replicas: []replica{{id: payloadID}, {id: payloadID}},
		},
		{
			name:     "one replica is enough",
			replicas: []replica{{id: payloadID}, {err: errBroken}},
		},
		{
			name:     "offline replicas are skipped",
			replicas: []replica{{offline: true}, {id: payloadID}},
		},
		{
			name:     "every replica broken",
			replicas: []replica{{err: errBroken}, {err: errBroken}},
			wantErr:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			multi := NewMultiStorageBackend(replicas(t, store, tc.replicas...), discardLogger())
			id, err := multi.Store(context.Background(), payload, interfaces.CheckpointType)
			if tc.wantErr {
				assert.Error(t, err)
				assert.Equal(t, interfaces.ContentID{}, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, payloadID, id)
		})
	}
}

func TestMultiStorageBackend_Location(t *testing.T) {
	multi := NewMultiStorageBackend(replicas(t, func(*mockBackend, replica) {}, replica{}, replica{}), nil)
	assert.Equal(t, "multi-storage", multi.Name())
	assert.Equal(t, "multi:[mock://a,mock://b]", multi.LocationURI())
}
