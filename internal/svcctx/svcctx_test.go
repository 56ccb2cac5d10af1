package svcctx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/dcpr/internal/config"
	"github.com/jackzampolin/dcpr/internal/home"
)

func TestAccessors_EmptyContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ServicesFrom(ctx))
	assert.NotNil(t, LoggerFrom(ctx))
	assert.Equal(t, config.DefaultConfig().Extraction, ConfigFrom(ctx).Extraction)
	assert.Nil(t, RegistryFrom(ctx))
	assert.Nil(t, PatternsFrom(ctx))

	_, err := StoreFrom(ctx)
	assert.Error(t, err)
}

func TestServices_Store(t *testing.T) {
	h, err := home.New(filepath.Join(t.TempDir(), "dcpr"))
	require.NoError(t, err)

	s := &Services{Home: h}
	ctx := WithServices(context.Background(), s)
	assert.Same(t, h, HomeFrom(ctx))
	assert.Equal(t, h.DBPath(), s.DBPath())

	st, err := StoreFrom(ctx)
	require.NoError(t, err)
	again, err := s.Store()
	require.NoError(t, err)
	assert.Same(t, st, again)
	assert.Equal(t, h.DBPath(), st.Path())

	require.NoError(t, s.Close())
}
