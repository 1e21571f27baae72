package objects

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	initialized bool
	failInit    bool
}

func (f *fakeTarget) Initialize() error {
	if f.failInit {
		return errors.New("boom")
	}
	f.initialized = true
	return nil
}

func (f *fakeTarget) Ping() string { return "pong" }

type pinger interface {
	Ping() string
}

func TestGetTypedLookup(t *testing.T) {
	r := NewRegistry()
	r.Insert(Id(1), &fakeTarget{})

	got, ok := Get[*fakeTarget](r, Id(1))
	require.True(t, ok)
	assert.Equal(t, "pong", got.Ping())

	asPinger, ok := Get[pinger](r, Id(1))
	require.True(t, ok)
	assert.Equal(t, "pong", asPinger.Ping())

	_, ok = Get[*fakeTarget](r, Id(2))
	assert.False(t, ok, "unregistered id")
}

func TestInitializeAllStopsOnFirstError(t *testing.T) {
	r := NewRegistry()
	good := &fakeTarget{}
	bad := &fakeTarget{failInit: true}
	r.Insert(Id(1), good)
	r.Insert(Id(2), bad)

	err := r.InitializeAll()
	assert.Error(t, err)
}
