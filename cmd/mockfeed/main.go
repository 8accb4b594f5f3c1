// Command mockfeed serves a deterministic FDSN-style earthquake feed for local
// development and smoke tests. Events are generated per UTC day from a seed,
// so the same window always yields the same events.
//
// Usage:
//
//	go run ./cmd/mockfeed --addr :9000 --seed 42 --per-day 40
//
// then point the map at it with FEED_URL=http://localhost:9000/fdsnws/event/1/query.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/feed"
	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const queryPath = "/fdsnws/event/1/query"

// maxSpan bounds a single query so a careless window cannot generate forever.
const maxSpan = 366 * 24 * time.Hour

type Options struct {
	Addr   string `short:"a" long:"addr" description:"Listen address" default:":9000"`
	Seed   uint64 `short:"s" long:"seed" description:"Generator seed" default:"42"`
	PerDay int    `short:"n" long:"per-day" description:"Events generated per UTC day" default:"40"`
}

var places = []string{
	"Central Chile", "Southern Alaska", "Honshu, Japan", "Sumatra, Indonesia",
	"Central California", "Fiji region", "Northern Peru", "Kermadec Islands",
	"Tonga", "Mid-Atlantic Ridge", "Iceland", "Papua New Guinea",
}

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
	if opts.PerDay <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --per-day must be > 0")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	mux := http.NewServeMux()
	mux.Handle("GET "+queryPath, newHandler(opts.Seed, opts.PerDay, logger))

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("mock feed listening", "addr", opts.Addr, "path", queryPath, "seed", opts.Seed, "per_day", opts.PerDay)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("mock feed stopped", "error", err)
		os.Exit(1)
	}
}

type handler struct {
	seed    uint64
	perDay  int
	builder *feed.Builder
	logger  *slog.Logger
}

func newHandler(seed uint64, perDay int, logger *slog.Logger) http.Handler {
	return &handler{seed: seed, perDay: perDay, builder: feed.NewBuilder(time.UTC), logger: logger}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	if f := qs.Get("format"); f != "" && f != "geojson" {
		http.Error(w, "unsupported format "+strconv.Quote(f), http.StatusBadRequest)
		return
	}
	fs := domain.FilterState{StartTime: qs.Get("starttime"), EndTime: qs.Get("endtime")}
	if m := qs.Get("minmagnitude"); m != "" {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			http.Error(w, "bad minmagnitude", http.StatusBadRequest)
			return
		}
		fs.MinMagnitude = v
	}
	q, err := h.builder.BuildQuery(fs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if q.End.Sub(q.Start) > maxSpan {
		http.Error(w, "window too large", http.StatusBadRequest)
		return
	}

	fc := h.events(q)
	h.logger.Info("query", "start", q.StartTime, "end", q.EndTime, "minmagnitude", q.MinMagnitude, "events", len(fc.Features))
	if len(fc.Features) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	json.NewEncoder(w).Encode(fc) //nolint:errcheck // best-effort response
}

// events returns the generated events inside q, oldest first.
func (h *handler) events(q feed.QueryParams) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	start, end := q.Start.UTC(), q.End.UTC()
	for day := start.Truncate(24 * time.Hour); !day.After(end); day = day.Add(24 * time.Hour) {
		for _, f := range h.day(day) {
			t := time.UnixMilli(int64(f.Properties["time"].(float64))).UTC()
			if t.Before(start) || t.After(end) {
				continue
			}
			if f.Properties["mag"].(float64) < q.MinMagnitude {
				continue
			}
			fc.Append(f)
		}
	}
	return fc
}

// day generates the events of one UTC day. The result depends only on the
// seed and the day.
func (h *handler) day(day time.Time) []*geojson.Feature {
	rng := rand.New(rand.NewPCG(h.seed, uint64(day.Unix())))
	out := make([]*geojson.Feature, 0, h.perDay)
	for i := range h.perDay {
		lon := rng.Float64()*360 - 180
		lat := rng.Float64()*140 - 70
		mag := math.Min(1+rng.ExpFloat64()*0.9, 9.5)
		mag = math.Round(mag*10) / 10
		at := day.Add(time.Duration(rng.Int64N(int64(24 * time.Hour))))
		code := fmt.Sprintf("%s%03d", day.Format("20060102"), i)

		f := geojson.NewFeature(orb.Point{lon, lat})
		f.ID = "mk" + code
		f.Properties["code"] = code
		f.Properties["mag"] = mag
		f.Properties["place"] = places[rng.IntN(len(places))]
		f.Properties["time"] = float64(at.UnixMilli())
		f.Properties["url"] = "https://example.invalid/event/mk" + code
		out = append(out, f)
	}
	return out
}
