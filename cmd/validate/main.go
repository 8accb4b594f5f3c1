// Command validate checks the static map datasets, the layer styles, and
// optionally a live or mock seismic feed before they are deployed. It verifies
// that every dataset parses, keys are unique, the chosen projection fits the
// combined extent inside the drawing area, and feed events carry usable keys
// and magnitudes.
//
// Usage:
//
//	go run ./cmd/validate \
//	  --continents data/continents.json \
//	  --plates data/tectonic_plates.json \
//	  --feed-url http://localhost:9000/fdsnws/event/1/query
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/seismic-map/internal/adapter/dataset"
	"github.com/couchcryptid/seismic-map/internal/adapter/usgs"
	"github.com/couchcryptid/seismic-map/internal/config"
	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/feed"
	"github.com/couchcryptid/seismic-map/internal/observability"
	"github.com/couchcryptid/seismic-map/internal/projection"
	"github.com/couchcryptid/seismic-map/internal/scene"
	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb"
)

type Options struct {
	Continents    string        `long:"continents" description:"Continents GeoJSON file" default:"data/continents.json"`
	ContinentsKey string        `long:"continents-key" description:"Continent key property" default:"CONTINENT"`
	Plates        string        `long:"plates" description:"Tectonic plates GeoJSON file" default:"data/tectonic_plates.json"`
	PlatesKey     string        `long:"plates-key" description:"Plate key property" default:"PlateName"`
	Styles        string        `long:"styles" description:"Layer styles YAML file (optional)"`
	Projection    string        `short:"p" long:"projection" description:"Projection name" default:"winkel3"`
	Width         float64       `long:"width" description:"Drawing width" default:"800"`
	Height        float64       `long:"height" description:"Drawing height" default:"480"`
	FeedURL       string        `long:"feed-url" description:"Seismic feed base URL; feed checks are skipped if empty"`
	Start         string        `long:"start" description:"Feed window start (date or datetime); defaults to 7 days ago"`
	End           string        `long:"end" description:"Feed window end (date or datetime); defaults to now"`
	MinMagnitude  float64       `short:"m" long:"min-magnitude" description:"Minimum magnitude" default:"0"`
	Timeout       time.Duration `long:"timeout" description:"Feed request timeout" default:"30s"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if code := run(context.Background(), opts, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, opts Options, out io.Writer) int {
	var phases []*phase

	sources := []dataset.Source{
		{Layer: domain.LayerContinents, Path: opts.Continents, KeyProperty: opts.ContinentsKey},
		{Layer: domain.LayerPlates, Path: opts.Plates, KeyProperty: opts.PlatesKey},
	}
	var collections []domain.FeatureCollection
	for _, src := range sources {
		p := &phase{name: "dataset " + string(src.Layer)}
		fc, err := dataset.Load(ctx, src)
		if err != nil {
			p.errorf("%v", err)
		} else {
			checkDataset(p, fc)
			collections = append(collections, fc)
		}
		phases = append(phases, p)
	}

	styles := &phase{name: "layer styles"}
	if _, err := config.LoadStyles(opts.Styles); err != nil {
		styles.errorf("%v", err)
	}
	phases = append(phases, styles)

	fit := &phase{name: "projection fit"}
	if len(collections) == len(sources) {
		checkFit(fit, opts, collections)
	} else {
		fit.errorf("skipped: datasets did not load")
	}
	phases = append(phases, fit)

	if opts.FeedURL != "" {
		phases = append(phases, checkFeed(ctx, opts))
	}

	failed := 0
	for _, p := range phases {
		if p.passed() {
			fmt.Fprintf(out, "PASS  %s\n", p.name)
			continue
		}
		failed++
		fmt.Fprintf(out, "FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Fprintf(out, "      - %s\n", e)
		}
	}
	fmt.Fprintf(out, "\n%d/%d phases passed\n", len(phases)-failed, len(phases))
	if failed > 0 {
		return 1
	}
	return 0
}

func checkDataset(p *phase, fc domain.FeatureCollection) {
	if fc.Len() == 0 {
		p.errorf("no features with geometry")
		return
	}
	if _, dropped := fc.Dedupe(); dropped > 0 {
		p.errorf("%d duplicate keys", dropped)
	}
	if _, ok := fc.Bound(); !ok {
		p.errorf("empty extent")
	}
}

func checkFit(p *phase, opts Options, collections []domain.FeatureCollection) {
	raw, err := projection.ByName(opts.Projection)
	if err != nil {
		p.errorf("%v", err)
		return
	}
	extent := orb.Collection{}
	for _, fc := range collections {
		extent = append(extent, fc.Geometry())
	}
	proj := projection.New(raw)
	if err := proj.Fit(extent, opts.Width, opts.Height); err != nil {
		p.errorf("fit: %v", err)
		return
	}
	paths, err := proj.Path(extent)
	if err != nil {
		p.errorf("path: %v", err)
		return
	}
	// Rounding tolerance.
	const slack = 1.0
	outside := 0
	for _, path := range paths {
		for _, pt := range path {
			if !finite(pt) {
				p.errorf("non-finite projected point %v", pt)
				return
			}
			if pt.X < -slack || pt.X > opts.Width+slack || pt.Y < -slack || pt.Y > opts.Height+slack {
				outside++
			}
		}
	}
	if outside > 0 {
		p.errorf("%d projected points fall outside %gx%g", outside, opts.Width, opts.Height)
	}
}

func checkFeed(ctx context.Context, opts Options) *phase {
	p := &phase{name: "seismic feed"}

	builder := feed.NewBuilder(time.UTC)
	fs := builder.DefaultFilter(time.Now(), domain.DefaultLookback)
	if opts.Start != "" {
		fs.StartTime = opts.Start
	}
	if opts.End != "" {
		fs.EndTime = opts.End
	}
	fs.MinMagnitude = opts.MinMagnitude
	q, err := builder.BuildQuery(fs)
	if err != nil {
		p.errorf("query: %v", err)
		return p
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := usgs.NewClient(opts.FeedURL, opts.Timeout, logger, observability.NewMetricsForTesting())
	fc, err := client.Fetch(ctx, q)
	if err != nil {
		p.errorf("fetch: %v", err)
		return p
	}
	for _, f := range fc.Features {
		mag := f.Float(feed.AttrMag, 0)
		if mag < q.MinMagnitude {
			p.errorf("event %s: magnitude %g below requested %g", f.Key, mag, q.MinMagnitude)
		}
		if _, ok := f.Geometry.(orb.Point); !ok {
			p.errorf("event %s: geometry is %T, want point", f.Key, f.Geometry)
		}
	}
	if _, dropped := fc.Dedupe(); dropped > 0 {
		p.errorf("%d duplicate event codes", dropped)
	}
	return p
}

func finite(pt scene.Point) bool {
	return !math.IsNaN(pt.X) && !math.IsNaN(pt.Y) && !math.IsInf(pt.X, 0) && !math.IsInf(pt.Y, 0)
}
