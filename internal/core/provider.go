package core

// 已接入的新闻 provider
const (
	ProviderNewsAPI  = "newsapi"
	ProviderGuardian = "guardian"
	ProviderNYT      = "nyt"
)
