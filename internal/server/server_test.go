package server

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SeniorJunior-backend/internal/config"
	"SeniorJunior-backend/internal/storage"
)

func TestOpenBackend_Disk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	backend, err := openBackend(context.Background(), &config.Config{UploadBackend: config.UploadDisk, UploadDir: dir})
	require.NoError(t, err)

	disk, ok := backend.(*storage.Disk)
	require.True(t, ok)
	assert.Equal(t, dir, disk.Root)
}

func TestClose_ReverseOrderAndJoinedErrors(t *testing.T) {
	var order []int
	boom := errors.New("boom")
	s := &Server{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return boom },
		func() error { order = append(order, 3); return nil },
	}}

	err := s.Close()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{3, 2, 1}, order)

	// closers run once
	assert.NoError(t, s.Close())
}

func TestHTTPServer_UsesConfiguredPort(t *testing.T) {
	ts := newTestServer(t, 100)
	ts.Config.Port = 9090

	hs := ts.HTTPServer()
	assert.Equal(t, ":9090", hs.Addr)
	assert.NotNil(t, hs.Handler)
}
