package fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/config"
	"buywise/internal/httpfetch"
	"buywise/internal/metrics"
	"buywise/internal/scraper"
)

// AsScraper registers a constructor whose result joins the registry.
func AsScraper(f any) fx.Option {
	return fx.Provide(
		fx.Annotate(
			f,
			fx.As(new(scraper.Scraper)),
			fx.ResultTags(`group:"scrapers"`),
		),
	)
}

// FromRules builds a constructor for an HTMLScraper driven by rules.
func FromRules(rules scraper.Rules) any {
	return func(f *httpfetch.Fetcher, log *zap.SugaredLogger, rec metrics.Recorder) (*scraper.HTMLScraper, error) {
		return scraper.NewHTMLScraper(rules, f, log, rec)
	}
}

type NewRegistryParams struct {
	fx.In

	Scrapers []scraper.Scraper `group:"scrapers"`
	Cfg      *config.Config
	Logger   *zap.SugaredLogger
}

func NewRegistry(p NewRegistryParams) (*scraper.Registry, error) {
	r, err := scraper.NewRegistry(p.Scrapers, p.Cfg.Scrape.Concurrency, p.Logger)
	if err != nil {
		return nil, err
	}
	p.Logger.Infow("scraper_registry_ready", "stores", r.IDs())
	return r, nil
}

var Module = fx.Module(
	"scrapers",
	fx.Provide(httpfetch.NewFromConfig),
	AsScraper(FromRules(scraper.AmazonRules)),
	AsScraper(FromRules(scraper.FlipkartRules)),
	AsScraper(FromRules(scraper.SnapdealRules)),
	fx.Provide(NewRegistry),
)
