package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const platesFixture = "../../internal/adapter/dataset/testdata/plates.json"

func testOptions() Options {
	return Options{
		Continents:    platesFixture,
		ContinentsKey: "PlateName",
		Plates:        platesFixture,
		PlatesKey:     "PlateName",
		Projection:    "equirectangular",
		Width:         800,
		Height:        480,
	}
}

func TestRun_Passes(t *testing.T) {
	var out bytes.Buffer
	code := run(context.Background(), testOptions(), &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "PASS  dataset continents")
	assert.Contains(t, out.String(), "PASS  projection fit")
	assert.Contains(t, out.String(), "4/4 phases passed")
}

func TestRun_MissingDataset(t *testing.T) {
	opts := testOptions()
	opts.Plates = filepath.Join(t.TempDir(), "missing.json")

	var out bytes.Buffer
	code := run(context.Background(), opts, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FAIL  dataset tectonic-plates")
	assert.Contains(t, out.String(), "skipped: datasets did not load")
}

func TestRun_DuplicateKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dupes.json")
	data := `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"name":"A"},"geometry":{"type":"Point","coordinates":[0,0]}},
 {"type":"Feature","properties":{"name":"A"},"geometry":{"type":"Point","coordinates":[10,10]}}
]}`
	assert.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	opts := testOptions()
	opts.Continents, opts.ContinentsKey = path, "name"

	var out bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), opts, &out))
	assert.Contains(t, out.String(), "1 duplicate keys")
}

func TestRun_Feed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"code":"1","mag":0.5},"geometry":{"type":"Point","coordinates":[10,20]}},
 {"type":"Feature","properties":{"code":"2","mag":3.5},"geometry":{"type":"Point","coordinates":[-10,-20]}}
]}`))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.FeedURL = srv.URL
	opts.Start, opts.End = "2024-01-01", "2024-01-02"
	opts.MinMagnitude = 1

	var out bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), opts, &out))
	assert.Contains(t, out.String(), "FAIL  seismic feed")
	assert.Contains(t, out.String(), "event 1: magnitude 0.5 below requested 1")
}
