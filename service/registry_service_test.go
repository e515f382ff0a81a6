package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainjack/config"
	"chainjack/models"
)

func newRegistryFixture() (*registryService, *fakeFactory) {
	factory := newFakeFactory()
	cfg := testConfig("public-1", config.RolePublic)
	return NewRegistryService(factory, cfg).(*registryService), factory
}

func TestHandleAddPlayChain_MasterGated(t *testing.T) {
	svc, factory := newRegistryFixture()

	err := svc.HandleAddPlayChain(context.Background(), "user-1", models.AddPlayChainData{Chain: "play-1"})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Empty(t, factory.state().regOrder)

	require.NoError(t, svc.HandleAddPlayChain(context.Background(), "master", models.AddPlayChainData{Chain: "play-1"}))
	assert.Equal(t, []models.ChainID{"play-1"}, factory.state().regOrder)
	assert.Equal(t, uint8(0), factory.state().regOcc["play-1"])
}

func TestHandleAddPlayChain_Idempotent(t *testing.T) {
	svc, factory := newRegistryFixture()

	data := models.AddPlayChainData{Chain: "play-1"}
	require.NoError(t, svc.HandleAddPlayChain(context.Background(), "master", data))
	require.NoError(t, svc.HandleAddPlayChain(context.Background(), "master", data))

	assert.Len(t, factory.state().regOrder, 1)
}

func TestHandleUpdatePlayChain(t *testing.T) {
	svc, factory := newRegistryFixture()
	require.NoError(t, svc.HandleAddPlayChain(context.Background(), "master", models.AddPlayChainData{Chain: "play-1"}))

	require.NoError(t, svc.HandleUpdatePlayChain(context.Background(), "play-1", models.UpdatePlayChainData{Occupancy: 2}))
	assert.Equal(t, uint8(2), factory.state().regOcc["play-1"])
	assert.Len(t, factory.state().regOrder, 1)

	// Unregistered chains may not report occupancy.
	err := svc.HandleUpdatePlayChain(context.Background(), "play-9", models.UpdatePlayChainData{Occupancy: 1})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	err = svc.HandleUpdatePlayChain(context.Background(), "play-1", models.UpdatePlayChainData{Occupancy: models.MaxPlayers + 1})
	assert.Error(t, err)
}

func TestHandleFindPlayChain_PrefersLowestBucket(t *testing.T) {
	svc, factory := newRegistryFixture()
	require.NoError(t, svc.HandleAddPlayChain(context.Background(), "master", models.AddPlayChainData{Chain: "play-1"}))
	require.NoError(t, svc.HandleAddPlayChain(context.Background(), "master", models.AddPlayChainData{Chain: "play-2"}))
	require.NoError(t, svc.HandleUpdatePlayChain(context.Background(), "play-1", models.UpdatePlayChainData{Occupancy: 1}))

	require.NoError(t, svc.HandleFindPlayChain(context.Background(), "user-1"))

	results := factory.rec().sentOfKind(models.MsgFindPlayChainResult)
	require.Len(t, results, 1)
	assert.Equal(t, models.ChainID("user-1"), results[0].dest)
	assert.Equal(t, models.ChainID("play-2"), results[0].msg.FindPlayChainResult.Chain)
}

func TestHandleFindPlayChain_SkipsFullTables(t *testing.T) {
	svc, factory := newRegistryFixture()
	require.NoError(t, svc.HandleAddPlayChain(context.Background(), "master", models.AddPlayChainData{Chain: "play-1"}))
	require.NoError(t, svc.HandleUpdatePlayChain(context.Background(), "play-1", models.UpdatePlayChainData{Occupancy: models.MaxPlayers}))

	require.NoError(t, svc.HandleFindPlayChain(context.Background(), "user-1"))

	results := factory.rec().sentOfKind(models.MsgFindPlayChainResult)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].msg.FindPlayChainResult.Chain)
}

func TestHandleFindPlayChain_EmptyRegistry(t *testing.T) {
	svc, factory := newRegistryFixture()

	require.NoError(t, svc.HandleFindPlayChain(context.Background(), "user-1"))

	results := factory.rec().sentOfKind(models.MsgFindPlayChainResult)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].msg.FindPlayChainResult.Chain)
}
