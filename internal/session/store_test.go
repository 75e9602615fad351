package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/proplatform/internal/storage/memory"
)

type StoreSuite struct {
	suite.Suite
	backend *memory.Storage
	store   *Store
	ctx     context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.backend = memory.New()
	s.store = New(s.backend, Config{})
	s.ctx = context.Background()
}

func (s *StoreSuite) TestDefaultSlot() {
	s.Equal(DefaultSlot, s.store.Slot())
}

func (s *StoreSuite) TestReadEmpty() {
	token, err := s.store.Read(s.ctx)
	s.Require().NoError(err)
	s.Empty(token)
}

func (s *StoreSuite) TestSaveThenRead() {
	for _, token := range []string{"T1", "eyJhbGciOi.x.y", " ", "ünïcødé"} {
		s.Require().NoError(s.store.Save(s.ctx, token))

		got, err := s.store.Read(s.ctx)
		s.Require().NoError(err)
		s.Equal(token, got)
	}
}

func (s *StoreSuite) TestSaveWritesConfiguredSlot() {
	store := New(s.backend, Config{Slot: "other"})
	_ = store.Save(s.ctx, "T1")

	value, _ := s.backend.Get(s.ctx, "other")
	s.Equal("T1", value)

	value, _ = s.backend.Get(s.ctx, DefaultSlot)
	s.Empty(value)
}

func (s *StoreSuite) TestLastWriteWins() {
	_ = s.store.Save(s.ctx, "T1")
	_ = s.store.Save(s.ctx, "T2")

	got, _ := s.store.Read(s.ctx)
	s.Equal("T2", got)
}

func (s *StoreSuite) TestClearIsIdempotent() {
	_ = s.store.Save(s.ctx, "T1")

	s.Require().NoError(s.store.Clear(s.ctx))
	s.Require().NoError(s.store.Clear(s.ctx))

	got, err := s.store.Read(s.ctx)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *StoreSuite) TestBackendErrorsPropagate() {
	boom := errors.New("storage denied")
	store := New(failingBackend{err: boom}, Config{})

	s.ErrorIs(store.Save(s.ctx, "T1"), boom)
	_, err := store.Read(s.ctx)
	s.ErrorIs(err, boom)
	s.ErrorIs(store.Clear(s.ctx), boom)
}

type failingBackend struct {
	err error
}

func (f failingBackend) Get(context.Context, string) (string, error) { return "", f.err }
func (f failingBackend) Set(context.Context, string, string) error    { return f.err }
func (f failingBackend) Delete(context.Context, string) error         { return f.err }
