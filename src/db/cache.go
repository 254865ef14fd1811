package db

import (
	"log"
	"sync"

	"github.com/dgraph-io/ristretto"
)

// Read caches for transaction lists and spending summaries, invalidated as a
// whole after a sync pass or a rule change. Key sets are tracked so an entire
// class of keys can be dropped at once.
var (
	Cache                *ristretto.Cache
	TransactionCacheKeys = keySet{m: make(map[string]struct{})}
	SummaryCacheKeys     = keySet{m: make(map[string]struct{})}
)

type keySet struct {
	sync.Mutex
	m map[string]struct{}
}

func InitCache() {
	var err error
	Cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		log.Fatalf("failed to initialize cache: %v", err)
	}
}

func SetTransactionCache(cacheKey string, value interface{}) {
	TransactionCacheKeys.Lock()
	TransactionCacheKeys.m[cacheKey] = struct{}{}
	TransactionCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func SetSummaryCache(cacheKey string, value interface{}) {
	SummaryCacheKeys.Lock()
	SummaryCacheKeys.m[cacheKey] = struct{}{}
	SummaryCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

// ClearUserCaches drops every cached transaction list and summary. Called
// after any write that changes stored transactions.
func ClearUserCaches() {
	clearSet(&TransactionCacheKeys)
	clearSet(&SummaryCacheKeys)
}

func clearSet(set *keySet) {
	set.Lock()
	for key := range set.m {
		Cache.Del(key)
	}
	set.m = make(map[string]struct{})
	set.Unlock()
}
