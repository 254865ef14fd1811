package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finflow-server/src/categorize"
	"finflow-server/src/models"
	"finflow-server/src/plaid"
)

type pageResult struct {
	page *models.SyncPage
	err  error
}

// fakeAggregator replays a scripted sequence of pages and records the cursor
// each call was made with.
type fakeAggregator struct {
	pages       []pageResult
	calls       []string
	accounts    []models.AccountSnapshot
	accountsErr error
}

func (f *fakeAggregator) SyncTransactions(_ context.Context, _, cursor string) (*models.SyncPage, error) {
	f.calls = append(f.calls, cursor)
	if len(f.pages) == 0 {
		return &models.SyncPage{NextCursor: cursor, HasMore: false}, nil
	}
	next := f.pages[0]
	f.pages = f.pages[1:]
	return next.page, next.err
}

func (f *fakeAggregator) GetAccounts(_ context.Context, _ string) ([]models.AccountSnapshot, error) {
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return f.accounts, nil
}

type storedTxn struct {
	delta      models.TxnDelta
	categoryID int64
}

type fakeStore struct {
	mu sync.Mutex

	cursor          string
	cursorUpdatedAt *time.Time
	cursorSaves     []string
	cursorClears    int

	transactions map[string]storedTxn
	categories   map[string]int64
	nextCategory int64
	accounts     map[string]models.AccountSnapshot
	rules        []models.AutoRule

	knownAccounts map[string]bool // nil means every account is known

	rulesErr   error
	upsertErr  error
	accountErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transactions: make(map[string]storedTxn),
		categories:   make(map[string]int64),
		nextCategory: 1,
		accounts:     make(map[string]models.AccountSnapshot),
	}
}

func (f *fakeStore) GetCursor(_ context.Context, _ int64) (string, *time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor, f.cursorUpdatedAt, nil
}

func (f *fakeStore) SaveCursor(_ context.Context, _ int64, cursor string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.cursor = cursor
	f.cursorUpdatedAt = &now
	f.cursorSaves = append(f.cursorSaves, cursor)
	return nil
}

func (f *fakeStore) ClearCursor(_ context.Context, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursor = ""
	f.cursorUpdatedAt = nil
	f.cursorClears++
	return nil
}

func (f *fakeStore) UpsertTransaction(_ context.Context, _ int64, delta models.TxnDelta, categoryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.knownAccounts != nil && !f.knownAccounts[delta.AccountID] {
		return ErrAccountNotFound
	}
	f.transactions[delta.TransactionID] = storedTxn{delta: delta, categoryID: categoryID}
	return nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, _ int64, externalTransactionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.transactions, externalTransactionID)
	return nil
}

func (f *fakeStore) UpsertAccount(_ context.Context, _ int64, snapshot models.AccountSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accountErr != nil {
		return f.accountErr
	}
	f.accounts[snapshot.AccountID] = snapshot
	return nil
}

func (f *fakeStore) GetOrCreateCategory(_ context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.categories[name]; ok {
		return id, nil
	}
	id := f.nextCategory
	f.nextCategory++
	f.categories[name] = id
	return id, nil
}

func (f *fakeStore) ActiveRules(_ context.Context, _ int64) ([]models.AutoRule, error) {
	if f.rulesErr != nil {
		return nil, f.rulesErr
	}
	return f.rules, nil
}

func testEngine(agg Aggregator, store Store) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(agg, store, categorize.Keyword{}, logger)
}

func testItem() models.Item {
	return models.Item{ID: 1, UserID: 7, AccessToken: "access-token"}
}

func delta(id, name string, amount string) models.TxnDelta {
	return models.TxnDelta{
		TransactionID: id,
		AccountID:     "acct-1",
		Amount:        decimal.RequireFromString(amount),
		Date:          time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Name:          name,
	}
}

func providerErr(kind plaid.ErrorKind) error {
	return &plaid.ProviderError{Kind: kind, Code: kind.String(), Err: errors.New("boom")}
}

func TestSyncSinglePage(t *testing.T) {
	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{
			Added:      []models.TxnDelta{delta("txn-1", "Starbucks #123", "-12.50")},
			NextCursor: "n1",
		}},
	}}
	store := newFakeStore()

	result, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)

	assert.Equal(t, models.SyncResult{Added: 1}, result)
	assert.Equal(t, []string{""}, agg.calls)
	assert.Equal(t, "n1", store.cursor)

	stored, ok := store.transactions["txn-1"]
	require.True(t, ok)
	assert.True(t, stored.delta.Amount.Equal(decimal.RequireFromString("-12.50")))
	assert.Equal(t, store.categories[categorize.FoodAndDining], stored.categoryID)
}

func TestSyncMultiPageAccumulates(t *testing.T) {
	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{
			Added:      []models.TxnDelta{delta("txn-1", "Starbucks", "-5.00")},
			NextCursor: "p1",
			HasMore:    true,
		}},
		{page: &models.SyncPage{
			Added:      []models.TxnDelta{delta("txn-2", "Uber Trip", "-9.00")},
			Modified:   []models.TxnDelta{delta("txn-1", "Starbucks Coffee", "-5.00")},
			NextCursor: "p2",
		}},
	}}
	store := newFakeStore()

	result, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)

	assert.Equal(t, models.SyncResult{Added: 2, Modified: 1}, result)
	assert.Equal(t, []string{"", "p1"}, agg.calls)
	// Only the terminal cursor is persisted.
	assert.Equal(t, []string{"p2"}, store.cursorSaves)
}

func TestSyncSameDeltaTwiceIsIdempotent(t *testing.T) {
	d := delta("txn-1", "Starbucks", "-5.00")
	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{Added: []models.TxnDelta{d, d}, NextCursor: "n1"}},
	}}
	store := newFakeStore()

	result, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Added)
	assert.Len(t, store.transactions, 1)
}

func TestSyncModifiedForUnseenTransactionInserts(t *testing.T) {
	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{
			Modified:   []models.TxnDelta{delta("txn-9", "Netflix.com", "-15.99")},
			NextCursor: "n1",
		}},
	}}
	store := newFakeStore()

	result, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Modified)
	_, ok := store.transactions["txn-9"]
	assert.True(t, ok)
}

func TestSyncRemovedDeltaDeletes(t *testing.T) {
	store := newFakeStore()
	store.transactions["txn-old"] = storedTxn{}

	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{Removed: []string{"txn-old", "txn-never-seen"}, NextCursor: "n1"}},
	}}

	result, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Removed)
	assert.Empty(t, store.transactions)
}

func TestSyncTransientFailureLeavesCursorUntouched(t *testing.T) {
	store := newFakeStore()
	store.cursor = "c0"
	now := time.Now()
	store.cursorUpdatedAt = &now

	agg := &fakeAggregator{pages: []pageResult{
		{err: providerErr(plaid.KindTransient)},
	}}

	_, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrReauthRequired)
	assert.Equal(t, "c0", store.cursor)
	assert.Empty(t, store.cursorSaves)
}

func TestSyncCredentialErrorSignalsReauth(t *testing.T) {
	for _, kind := range []plaid.ErrorKind{plaid.KindCredentialExpired, plaid.KindInvalidCredential} {
		store := newFakeStore()
		store.cursor = "c0"
		now := time.Now()
		store.cursorUpdatedAt = &now

		agg := &fakeAggregator{pages: []pageResult{{err: providerErr(kind)}}}

		_, err := testEngine(agg, store).Sync(context.Background(), testItem())
		require.ErrorIs(t, err, ErrReauthRequired, "kind %s", kind)
		assert.Equal(t, "c0", store.cursor)
		assert.Zero(t, store.cursorClears)
	}
}

func TestSyncStaleCursorResetsOnceAndRetries(t *testing.T) {
	store := newFakeStore()
	store.cursor = "c0"
	now := time.Now()
	store.cursorUpdatedAt = &now

	agg := &fakeAggregator{pages: []pageResult{
		{err: providerErr(plaid.KindCursorStale)},
		{page: &models.SyncPage{
			Added:      []models.TxnDelta{delta("txn-1", "Starbucks", "-5.00")},
			NextCursor: "n1",
		}},
	}}

	result, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, []string{"c0", ""}, agg.calls)
	assert.Equal(t, 1, store.cursorClears)
	assert.Equal(t, "n1", store.cursor)
}

func TestSyncStaleCursorTwiceFails(t *testing.T) {
	store := newFakeStore()
	store.cursor = "c0"
	now := time.Now()
	store.cursorUpdatedAt = &now

	agg := &fakeAggregator{pages: []pageResult{
		{err: providerErr(plaid.KindCursorStale)},
		{err: providerErr(plaid.KindCursorStale)},
	}}

	_, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.Error(t, err)
	assert.Equal(t, []string{"c0", ""}, agg.calls)
	assert.Empty(t, store.cursorSaves)
}

func TestSyncDiscardsOldCursorBeforeFirstCall(t *testing.T) {
	store := newFakeStore()
	store.cursor = "ancient"
	old := time.Now().Add(-31 * 24 * time.Hour)
	store.cursorUpdatedAt = &old

	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{NextCursor: "fresh"}},
	}}

	_, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)

	assert.Equal(t, []string{""}, agg.calls)
	assert.Equal(t, 1, store.cursorClears)
	assert.Equal(t, "fresh", store.cursor)
}

func TestSyncRecentCursorIsKept(t *testing.T) {
	store := newFakeStore()
	store.cursor = "c0"
	recent := time.Now().Add(-24 * time.Hour)
	store.cursorUpdatedAt = &recent

	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{NextCursor: "c1"}},
	}}

	_, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)
	assert.Equal(t, []string{"c0"}, agg.calls)
}

func TestSyncUnknownAccountDeltaIsSkipped(t *testing.T) {
	store := newFakeStore()
	store.knownAccounts = map[string]bool{"acct-1": true}

	orphan := delta("txn-orphan", "Starbucks", "-5.00")
	orphan.AccountID = "acct-unknown"

	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{
			Added:      []models.TxnDelta{orphan, delta("txn-ok", "Starbucks", "-5.00")},
			NextCursor: "n1",
		}},
	}}

	result, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)

	assert.Equal(t, models.SyncResult{Added: 1, Skipped: 1}, result)
	assert.Equal(t, "n1", store.cursor)
	_, ok := store.transactions["txn-orphan"]
	assert.False(t, ok)
}

func TestSyncStoreFailurePerDeltaDoesNotAbortPass(t *testing.T) {
	store := newFakeStore()
	store.upsertErr = errors.New("disk on fire")

	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{
			Added:      []models.TxnDelta{delta("txn-1", "Starbucks", "-5.00")},
			NextCursor: "n1",
		}},
	}}

	result, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Skipped: 1}, result)
	assert.Equal(t, "n1", store.cursor)
}

func TestSyncBalanceRefreshIsBestEffort(t *testing.T) {
	agg := &fakeAggregator{
		pages: []pageResult{
			{page: &models.SyncPage{
				Added:      []models.TxnDelta{delta("txn-1", "Starbucks", "-5.00")},
				NextCursor: "n1",
			}},
		},
		accountsErr: errors.New("balances unavailable"),
	}
	store := newFakeStore()

	result, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, "n1", store.cursor)
}

func TestSyncRefreshesBalancesAfterTransactions(t *testing.T) {
	agg := &fakeAggregator{
		pages: []pageResult{
			{page: &models.SyncPage{NextCursor: "n1"}},
		},
		accounts: []models.AccountSnapshot{
			{AccountID: "acct-1", Name: "Checking", CurrentBalance: decimal.RequireFromString("1042.17")},
		},
	}
	store := newFakeStore()

	_, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)

	snapshot, ok := store.accounts["acct-1"]
	require.True(t, ok)
	assert.True(t, snapshot.CurrentBalance.Equal(decimal.RequireFromString("1042.17")))
}

func TestSyncRuleOverridesCategorizer(t *testing.T) {
	store := newFakeStore()
	store.rules = []models.AutoRule{
		{Keywords: []string{"starbucks"}, Category: "Coffee Habit", Priority: 10, Active: true},
	}

	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{
			Added:      []models.TxnDelta{delta("txn-1", "Starbucks #123", "-12.50")},
			NextCursor: "n1",
		}},
	}}

	_, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)

	stored := store.transactions["txn-1"]
	assert.Equal(t, store.categories["Coffee Habit"], stored.categoryID)
}

func TestSyncFirstMatchingRuleWins(t *testing.T) {
	store := newFakeStore()
	store.rules = []models.AutoRule{
		{Keywords: []string{"starbucks"}, Category: "Coffee Habit", Priority: 10, Active: true},
		{Keywords: []string{"starbucks"}, Category: "Treats", Priority: 1, Active: true},
	}

	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{
			Added:      []models.TxnDelta{delta("txn-1", "Starbucks", "-4.00")},
			NextCursor: "n1",
		}},
	}}

	_, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)
	assert.Equal(t, store.categories["Coffee Habit"], store.transactions["txn-1"].categoryID)
}

func TestSyncRuleLoadFailureStillSyncs(t *testing.T) {
	store := newFakeStore()
	store.rulesErr = errors.New("rules table gone")

	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{
			Added:      []models.TxnDelta{delta("txn-1", "Starbucks", "-4.00")},
			NextCursor: "n1",
		}},
	}}

	result, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
}

func TestSyncNegativeAmountNeverIncome(t *testing.T) {
	// A rule (or provider category) labeling money-out as income is
	// overridden by the fallback categorizer.
	store := newFakeStore()
	store.rules = []models.AutoRule{
		{Keywords: []string{"refund"}, Category: categorize.Income, Priority: 5, Active: true},
	}

	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{
			Added:      []models.TxnDelta{delta("txn-1", "Refund Reversal", "-30.00")},
			NextCursor: "n1",
		}},
	}}

	_, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)

	stored := store.transactions["txn-1"]
	incomeID, hasIncome := store.categories[categorize.Income]
	if hasIncome {
		assert.NotEqual(t, incomeID, stored.categoryID)
	}
	assert.Equal(t, store.categories[categorize.Other], stored.categoryID)
}

func TestSyncProviderCategoryPreferred(t *testing.T) {
	d := delta("txn-1", "Some Obscure Merchant", "-8.00")
	d.Category = "Travel"

	agg := &fakeAggregator{pages: []pageResult{
		{page: &models.SyncPage{Added: []models.TxnDelta{d}, NextCursor: "n1"}},
	}}
	store := newFakeStore()

	_, err := testEngine(agg, store).Sync(context.Background(), testItem())
	require.NoError(t, err)
	assert.Equal(t, store.categories["Travel"], store.transactions["txn-1"].categoryID)
}

func TestGetOrCreateCategoryConcurrent(t *testing.T) {
	store := newFakeStore()

	var wg sync.WaitGroup
	ids := make([]int64, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.GetOrCreateCategory(context.Background(), "Groceries")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, store.categories, 1)
}

func TestRuleMatches(t *testing.T) {
	rule := models.AutoRule{Keywords: []string{"Starbucks", ""}}

	assert.True(t, ruleMatches(rule, "STARBUCKS #9", ""))
	assert.True(t, ruleMatches(rule, "POS 0042", "Starbucks"))
	assert.False(t, ruleMatches(rule, "Dunkin", ""))
	assert.False(t, ruleMatches(models.AutoRule{}, "Starbucks", ""))
}
