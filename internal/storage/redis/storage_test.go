package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestGetEmptySlot() {
	value, err := s.storage.Get(s.ctx, "userData")
	s.Require().NoError(err)
	s.Empty(value)
}

func (s *StorageSuite) TestSetAndGet() {
	err := s.storage.Set(s.ctx, "userData", "T1")
	s.Require().NoError(err)

	value, err := s.storage.Get(s.ctx, "userData")
	s.Require().NoError(err)
	s.Equal("T1", value)
}

func (s *StorageSuite) TestSetUsesPrefixedKey() {
	_ = s.storage.Set(s.ctx, "userData", "T1")

	raw, err := s.mini.Get("proplatform:session:userData")
	s.Require().NoError(err)
	s.Equal("T1", raw)
}

func (s *StorageSuite) TestSetOverwrites() {
	_ = s.storage.Set(s.ctx, "userData", "T1")
	_ = s.storage.Set(s.ctx, "userData", "T2")

	value, _ := s.storage.Get(s.ctx, "userData")
	s.Equal("T2", value)
}

func (s *StorageSuite) TestDeleteIsIdempotent() {
	_ = s.storage.Set(s.ctx, "userData", "T1")

	s.Require().NoError(s.storage.Delete(s.ctx, "userData"))
	s.Require().NoError(s.storage.Delete(s.ctx, "userData"))

	s.False(s.mini.Exists(slotKey("userData")))
}

func (s *StorageSuite) TestNoTTLByDefault() {
	_ = s.storage.Set(s.ctx, "userData", "T1")

	s.Equal(time.Duration(0), s.mini.TTL(slotKey("userData")))
}

func (s *StorageSuite) TestSlotTTL() {
	cfg := DefaultConfig()
	cfg.SlotTTL = time.Hour
	store := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), cfg)
	defer func() { _ = store.Close() }()

	_ = store.Set(s.ctx, "userData", "T1")
	s.True(s.mini.TTL(slotKey("userData")) > 0, "slot should expire")

	s.mini.FastForward(2 * time.Hour)

	value, err := store.Get(s.ctx, "userData")
	s.Require().NoError(err)
	s.Empty(value)
}

func (s *StorageSuite) TestGetFailsWhenServerDown() {
	s.mini.Close()

	_, err := s.storage.Get(s.ctx, "userData")
	s.Error(err)
}
