package plaid

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"finflow-server/src/models"

	"github.com/plaid/plaid-go/v41/plaid"
	"github.com/shopspring/decimal"
)

// Client is the aggregator contract the rest of the server consumes.
// Failures are surfaced as *ProviderError with a closed ErrorKind.
type Client interface {
	CreateLinkToken(ctx context.Context, userID int64) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID, institutionID string, err error)
	SyncTransactions(ctx context.Context, accessToken, cursor string) (*models.SyncPage, error)
	GetAccounts(ctx context.Context, accessToken string) ([]models.AccountSnapshot, error)
}

type APIClient struct {
	api        *plaid.APIClient
	clientName string
	webhookURL string
}

func NewClient(clientID, secret, env, webhookURL string) *APIClient {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	configuration.AddDefaultHeader("PLAID-SECRET", secret)

	switch env {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	default:
		log.Fatalf("Invalid Plaid environment: %s", env)
	}

	return &APIClient{
		api:        plaid.NewAPIClient(configuration),
		clientName: "FinFlow",
		webhookURL: webhookURL,
	}
}

func (c *APIClient) CreateLinkToken(ctx context.Context, userID int64) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: strconv.FormatInt(userID, 10),
	}
	request := plaid.NewLinkTokenCreateRequest(
		c.clientName,
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
	)
	request.SetUser(user)
	request.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})
	if c.webhookURL != "" {
		request.SetWebhook(c.webhookURL)
	}

	resp, _, err := c.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", classify(err)
	}
	return resp.GetLinkToken(), nil
}

func (c *APIClient) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, string, error) {
	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		return "", "", "", classify(err)
	}

	accessToken := resp.GetAccessToken()
	itemID := resp.GetItemId()

	// Institution details are nice to have, not required.
	institutionID := ""
	itemReq := plaid.NewItemGetRequest(accessToken)
	itemResp, _, err := c.api.PlaidApi.ItemGet(ctx).ItemGetRequest(*itemReq).Execute()
	if err == nil && itemResp.GetItem().InstitutionId.IsSet() {
		institutionID = *itemResp.GetItem().InstitutionId.Get()
	}

	return accessToken, itemID, institutionID, nil
}

func (c *APIClient) SyncTransactions(ctx context.Context, accessToken, cursor string) (*models.SyncPage, error) {
	request := plaid.NewTransactionsSyncRequest(accessToken)
	if cursor != "" {
		request.SetCursor(cursor)
	}

	resp, _, err := c.api.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
	if err != nil {
		return nil, classify(err)
	}

	page := &models.SyncPage{
		NextCursor: resp.GetNextCursor(),
		HasMore:    resp.GetHasMore(),
	}
	for _, txn := range resp.GetAdded() {
		page.Added = append(page.Added, toDelta(txn))
	}
	for _, txn := range resp.GetModified() {
		page.Modified = append(page.Modified, toDelta(txn))
	}
	for _, removed := range resp.GetRemoved() {
		page.Removed = append(page.Removed, removed.GetTransactionId())
	}
	return page, nil
}

func (c *APIClient) GetAccounts(ctx context.Context, accessToken string) ([]models.AccountSnapshot, error) {
	request := plaid.NewAccountsBalanceGetRequest(accessToken)
	resp, _, err := c.api.PlaidApi.AccountsBalanceGet(ctx).AccountsBalanceGetRequest(*request).Execute()
	if err != nil {
		return nil, classify(err)
	}

	var snapshots []models.AccountSnapshot
	for _, acc := range resp.GetAccounts() {
		balances := acc.GetBalances()
		snapshots = append(snapshots, models.AccountSnapshot{
			AccountID:    acc.GetAccountId(),
			Name:         acc.GetName(),
			OfficialName: acc.GetOfficialName(),
			Mask:         acc.GetMask(),
			Type:         string(acc.GetType()),
			Subtype:      string(acc.GetSubtype()),
			// GetCurrent is 0 when the plan omits balances, which is
			// exactly the default we want.
			CurrentBalance: decimal.NewFromFloat(balances.GetCurrent()),
		})
	}
	return snapshots, nil
}

func toDelta(txn plaid.Transaction) models.TxnDelta {
	date, err := time.Parse("2006-01-02", txn.GetDate())
	if err != nil {
		date = time.Time{}
	}

	pfc := txn.GetPersonalFinanceCategory()

	return models.TxnDelta{
		TransactionID: txn.GetTransactionId(),
		AccountID:     txn.GetAccountId(),
		// Plaid reports money out as positive; we store money out as
		// negative so expenses sort below zero everywhere.
		Amount:       decimal.NewFromFloat(txn.GetAmount()).Neg(),
		Date:         date,
		Name:         txn.GetName(),
		MerchantName: txn.GetMerchantName(),
		Category:     prettyCategory(pfc.GetPrimary()),
		Pending:      txn.GetPending(),
	}
}

// prettyCategory turns Plaid's FOOD_AND_DRINK style labels into the display
// form stored in the categories table.
func prettyCategory(primary string) string {
	if primary == "" {
		return ""
	}
	words := strings.Split(strings.ToLower(primary), "_")
	for i, w := range words {
		if w == "and" {
			words[i] = "&"
			continue
		}
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
