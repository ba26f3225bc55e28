package providers

// Endpoints carries the base URL and key for every integration. Values come
// from the environment via the config package; keys are never embedded in
// URLs.
type Endpoints struct {
	OddsURL     string
	OddsKey     string
	PlaybookURL string
	PlaybookKey string
	StatsURL    string
	StatsKey    string
	WeatherURL  string
	WeatherKey  string
	SpaceURL    string
	AstroURL    string
	TrendsURL   string
	TrendsKey   string
	SERPURL     string
	SERPKey     string
	NewsURL     string
	NewsKey     string
	FinanceURL  string
	FinanceKey  string
}

// Bundle owns one client per integration.
type Bundle struct {
	Odds     *OddsClient
	Playbook *PlaybookClient
	Stats    *StatsClient
	Weather  *WeatherClient
	Space    *SpaceWeatherClient
	Astro    *AstroClient
	Trends   *TrendsClient
	SERP     *SERPClient
	News     *NewsClient
	Finance  *FinanceClient
}

// NewBundle wires every client onto the shared infrastructure.
func NewBundle(deps Deps, ep Endpoints) *Bundle {
	return &Bundle{
		Odds:     NewOddsClient(deps, ep.OddsURL, ep.OddsKey),
		Playbook: NewPlaybookClient(deps, ep.PlaybookURL, ep.PlaybookKey),
		Stats:    NewStatsClient(deps, ep.StatsURL, ep.StatsKey),
		Weather:  NewWeatherClient(deps, ep.WeatherURL, ep.WeatherKey),
		Space:    NewSpaceWeatherClient(deps, ep.SpaceURL),
		Astro:    NewAstroClient(deps, ep.AstroURL),
		Trends:   NewTrendsClient(deps, ep.TrendsURL, ep.TrendsKey),
		SERP:     NewSERPClient(deps, ep.SERPURL, ep.SERPKey),
		News:     NewNewsClient(deps, ep.NewsURL, ep.NewsKey),
		Finance:  NewFinanceClient(deps, ep.FinanceURL, ep.FinanceKey),
	}
}
