package entitlement

import (
	"context"
	"testing"

	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/invoice-studio/pkg/kvstore"
	"github.com/invoice-studio/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ManagerSuite struct {
	suite.Suite
	ctx   context.Context
	store *kvstore.MemoryStore
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = kvstore.NewMemoryStore()
}

func (s *ManagerSuite) newManager() *Manager {
	m, err := NewManager(s.ctx, s.store, logger.NewNop())
	s.Require().NoError(err)
	return m
}

func (s *ManagerSuite) TestDefaultsToFree() {
	m := s.newManager()
	s.Equal(State{Tier: TierFree}, m.State())
}

func (s *ManagerSuite) TestLoadsPersistedState() {
	s.Require().NoError(s.store.Set(s.ctx, KeyIsPro, "true"))
	s.Require().NoError(s.store.Set(s.ctx, KeyTemplate, "dark-mode"))

	m := s.newManager()
	s.Equal(State{Tier: TierUnlocked, SelectedTemplate: "dark-mode"}, m.State())
}

func (s *ManagerSuite) TestConfirmPurchasePersistsAndNotifies() {
	m := s.newManager()
	var seen []State
	m.Subscribe(func(st State) { seen = append(seen, st) })

	s.Require().NoError(m.ConfirmPurchase(s.ctx))
	s.Require().NoError(m.ConfirmPurchase(s.ctx))

	s.Equal(TierUnlocked, m.Tier())
	v, err := s.store.Get(s.ctx, KeyIsPro)
	s.Require().NoError(err)
	s.Equal("true", v)
	s.Len(seen, 1)

	// a fresh manager sees the unlocked tier
	s.Equal(TierUnlocked, s.newManager().Tier())
}

func (s *ManagerSuite) TestOverride() {
	m := s.newManager()
	s.Require().NoError(m.Override(s.ctx, TierUnlocked))
	s.Require().NoError(m.Override(s.ctx, TierFree))

	v, err := s.store.Get(s.ctx, KeyIsPro)
	s.Require().NoError(err)
	s.Equal("false", v)

	err = m.Override(s.ctx, Tier("gold"))
	s.True(ierr.IsValidation(err))
}

func (s *ManagerSuite) TestPersistTemplateRequiresUnlocked() {
	m := s.newManager()

	err := m.PersistTemplate(s.ctx, "modern-blue")
	s.True(ierr.Is(err, ierr.ErrPermissionDenied))
	has, _ := s.store.Has(s.ctx, KeyTemplate)
	s.False(has)

	s.Require().NoError(m.ConfirmPurchase(s.ctx))
	s.Require().NoError(m.PersistTemplate(s.ctx, "modern-blue"))

	v, err := s.store.Get(s.ctx, KeyTemplate)
	s.Require().NoError(err)
	s.Equal("modern-blue", v)
	s.Equal("modern-blue", m.State().SelectedTemplate)
}

type failingStore struct {
	mock.Mock
	*kvstore.MemoryStore
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	args := f.Called(key, value)
	return args.Error(0)
}

func TestFailedWriteKeepsTier(t *testing.T) {
	store := &failingStore{MemoryStore: kvstore.NewMemoryStore()}
	store.On("Set", KeyIsPro, "true").Return(assert.AnError)

	m, err := NewManager(context.Background(), store, logger.NewNop())
	require.NoError(t, err)

	err = m.ConfirmPurchase(context.Background())
	assert.True(t, ierr.Is(err, ierr.ErrDatabase))
	assert.Equal(t, TierFree, m.Tier())
	store.AssertExpectations(t)
}
