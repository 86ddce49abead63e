package scoring

import "newssignal/backend-go/internal/models"

type cue struct {
	term   string
	weight float64
}

var categoryKeywords = map[models.Category][]string{
	models.CategoryMarket: {
		"price", "rally", "selloff", "sell-off", "etf", "inflows", "outflows", "futures",
		"liquidation", "liquidations", "trading", "volume", "market", "fed", "rate cut",
		"rate hike", "inflation", "all-time high", "funding rate", "open interest",
	},
	models.CategoryRegulation: {
		"sec", "cftc", "regulator", "regulation", "regulatory", "lawsuit", "court",
		"ban", "bill", "senate", "congress", "compliance", "license", "enforcement",
		"sanction", "sanctions", "mica", "subpoena", "settlement",
	},
	models.CategoryTechnology: {
		"upgrade", "hard fork", "fork", "mainnet", "testnet", "layer 2", "rollup",
		"protocol", "client", "scaling", "validator", "node", "zk", "zero-knowledge",
		"release", "developer", "eip",
	},
	models.CategoryDeFi: {
		"defi", "dex", "liquidity", "lending", "yield", "staking", "stablecoin",
		"amm", "tvl", "restaking", "vault", "airdrop", "uniswap", "aave",
	},
	models.CategorySecurity: {
		"hack", "hacked", "exploit", "breach", "stolen", "drained", "vulnerability",
		"phishing", "scam", "attack", "halts withdrawals", "withdrawals paused",
		"rug pull", "compromised", "outage",
	},
	models.CategoryAdoption: {
		"adoption", "partnership", "integrates", "accepts", "payments", "treasury",
		"institutional", "launches", "onboard", "merchants", "custody", "reserve",
	},
}

var bullishCues = []cue{
	{"all-time high", 2.5}, {"record high", 2.5}, {"etf approval", 3}, {"approves", 1.5},
	{"rate cut", 1.5}, {"inflows", 1.5}, {"surges", 2}, {"surge", 1.5}, {"soars", 2},
	{"rally", 1.5}, {"rallies", 1.5}, {"jumps", 1.5}, {"gains", 1}, {"rises", 1},
	{"bullish", 2}, {"breakout", 1.5}, {"adoption", 1}, {"partnership", 1},
	{"accumulate", 1}, {"accumulation", 1}, {"upgrade", 0.5}, {"launches", 0.5},
	{"recovers", 1}, {"rebound", 1}, {"beats", 1},
}

var bearishCues = []cue{
	{"halts withdrawals", 3}, {"withdrawals paused", 3}, {"bankruptcy", 3}, {"insolvent", 3},
	{"insolvency", 3}, {"hack", 2.5}, {"hacked", 2.5}, {"exploit", 2.5}, {"drained", 2.5},
	{"stolen", 2}, {"lawsuit", 1.5}, {"sues", 1.5}, {"ban", 1.5}, {"crackdown", 2},
	{"rate hike", 1.5}, {"outflows", 1.5}, {"plunges", 2}, {"plunge", 2}, {"crash", 2.5},
	{"crashes", 2.5}, {"tumbles", 2}, {"falls", 1}, {"drops", 1}, {"slides", 1},
	{"bearish", 2}, {"selloff", 1.5}, {"sell-off", 1.5}, {"liquidations", 1},
	{"delist", 2}, {"delisting", 2}, {"outage", 1}, {"fraud", 2.5}, {"rejects", 1.5},
	{"delays", 1},
}

// impactCues measure how much an event matters regardless of direction.
var impactCues = []cue{
	{"halts withdrawals", 50}, {"withdrawals paused", 50}, {"bankruptcy", 50},
	{"insolvency", 45}, {"etf approval", 45}, {"etf", 20}, {"hack", 35}, {"exploit", 35},
	{"drained", 30}, {"sec", 25}, {"fed", 25}, {"rate cut", 30}, {"rate hike", 30},
	{"lawsuit", 20}, {"ban", 25}, {"delist", 20}, {"hard fork", 20}, {"mainnet", 15},
	{"all-time high", 25}, {"record high", 25}, {"liquidations", 15}, {"treasury", 10},
	{"institutional", 10}, {"partnership", 8}, {"upgrade", 8},
}

// volatilityCues measure expected price swing. Rumors are cheap to print but
// move price, so they score here and not in impactCues.
var volatilityCues = []cue{
	{"halts withdrawals", 45}, {"withdrawals paused", 45}, {"rumor", 35}, {"rumour", 35},
	{"reportedly", 20}, {"unconfirmed", 30}, {"leak", 20}, {"crash", 35}, {"plunges", 30},
	{"surges", 30}, {"liquidations", 30}, {"short squeeze", 35}, {"hack", 30},
	{"exploit", 30}, {"delist", 25}, {"bankruptcy", 35}, {"all-time high", 20},
	{"etf", 15}, {"leverage", 15}, {"whale", 15},
}

// assetNames maps lowercase coin names to tickers. Tickers themselves are
// matched on their uppercase token.
var assetNames = map[string]string{
	"bitcoin":   "BTC",
	"ethereum":  "ETH",
	"ether":     "ETH",
	"solana":    "SOL",
	"ripple":    "XRP",
	"cardano":   "ADA",
	"dogecoin":  "DOGE",
	"avalanche": "AVAX",
	"polkadot":  "DOT",
	"chainlink": "LINK",
	"polygon":   "MATIC",
	"litecoin":  "LTC",
	"tron":      "TRX",
	"toncoin":   "TON",
	"tether":    "USDT",
	"binance":   "BNB",
	"arbitrum":  "ARB",
	"uniswap":   "UNI",
	"aave":      "AAVE",
}

var knownTickers = map[string]bool{
	"BTC": true, "ETH": true, "SOL": true, "XRP": true, "ADA": true, "DOGE": true,
	"AVAX": true, "DOT": true, "LINK": true, "MATIC": true, "LTC": true, "TRX": true,
	"TON": true, "USDT": true, "USDC": true, "BNB": true, "ARB": true, "OP": true,
	"UNI": true, "AAVE": true,
}

var majorAssets = map[string]bool{"BTC": true, "ETH": true}

// categoryPrior nudges bias so that neutral articles still rank apart.
var categoryPrior = map[models.Category]float64{
	models.CategoryMarket:     0.02,
	models.CategoryRegulation: -0.04,
	models.CategoryTechnology: 0.03,
	models.CategoryDeFi:       0.01,
	models.CategorySecurity:   -0.06,
	models.CategoryAdoption:   0.05,
	models.CategoryOther:      -0.01,
}
