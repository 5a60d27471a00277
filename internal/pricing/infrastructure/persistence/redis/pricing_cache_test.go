package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
)

type fakeStore struct {
	data map[string][]byte
	ttl  map[string]time.Duration
	err  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (s *fakeStore) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (s *fakeStore) SetJSON(_ context.Context, key string, value any, exp time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = raw
	s.ttl[key] = exp
	return nil
}

func TestPricingResultCache_RoundTrip(t *testing.T) {
	store := newFakeStore()
	cache := NewPricingResultCache(store)
	ctx := context.Background()

	if r, err := cache.Get(ctx, "abc"); r != nil || err != nil {
		t.Fatalf("empty cache returned %v, %v", r, err)
	}

	greeks := &domain.Greeks{Delta: 0.63, Gamma: 0.018}
	want := domain.NewPricingResult(domain.FamilyOption, "vanilla", "black-scholes", 10.45, greeks)
	if err := cache.Set(ctx, "abc", want, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := store.data["pricing_result:abc"]; !ok {
		t.Fatalf("key not prefixed: %v", store.data)
	}
	if store.ttl["pricing_result:abc"] != defaultTTL {
		t.Errorf("ttl = %v, want default", store.ttl["pricing_result:abc"])
	}

	got, err := cache.Get(ctx, "abc")
	if err != nil || got == nil {
		t.Fatalf("Get: %v, %v", got, err)
	}
	if got.Price != want.Price || got.Greeks == nil || got.Greeks.Delta != 0.63 || got.Kind != "vanilla" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestPricingResultCache_StoreError(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	cache := NewPricingResultCache(store)
	if _, err := cache.Get(context.Background(), "abc"); err == nil {
		t.Error("store error swallowed")
	}
}
