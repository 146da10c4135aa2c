package model

// Account holds API credentials for one seller account.
//
// Marketplace names the parent account that owns shared catalog truth
// (SKU details, products, categories, brands). When empty, the seller is
// its own marketplace. Price and stock are always read with the seller's
// own credentials.
type Account struct {
	Name        string `mapstructure:"name"`
	AccountName string `mapstructure:"account_name"`
	AppKey      string `mapstructure:"app_key"`
	AppToken    string `mapstructure:"app_token"`
	Marketplace string `mapstructure:"marketplace"`
}
