package sonarr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/tvfiles-io/tracker/services/reconcile"
)

func testApi(url string) *Api {
	return &Api{
		url:     url,
		key:     "test-key",
		timeout: 5 * time.Second,
		cl:      http.DefaultClient,
	}
}

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	fixtures := map[string]string{
		"/api/v3/series": `[
			{"id": 42, "title": "Show A", "path": "/tv/Show A"}
		]`,
		"/api/v3/episode": `[
			{"id": 4201, "seasonNumber": 1, "episodeNumber": 1},
			{"id": 4202, "seasonNumber": 1, "episodeNumber": 2},
			{"id": 4203, "seasonNumber": 1, "episodeNumber": 3}
		]`,
		"/api/v3/episodefile": `[
			{"id": 1, "path": "/tv/Show A/s01e01.mkv", "episodeIds": [4201]},
			{"id": 2, "path": "/tv/Show A/s01e02e03.mkv", "episodeIds": [4202, 4203]},
			{"id": 3, "path": "/tv/Show A/special.mkv", "episodeIds": []},
			{"id": 4, "path": "/tv/Show A/deleted.mkv", "episodeIds": [9999]}
		]`,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := fixtures[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestSourceEach(t *testing.T) {
	srv := fixtureServer(t)
	defer srv.Close()

	var obs []reconcile.Observation
	err := NewSource(testApi(srv.URL)).Each(context.Background(), func(o reconcile.Observation) error {
		obs = append(obs, o)
		return nil
	})
	if err != nil {
		t.Fatalf("each failed: %v", err)
	}

	// series registration + 4 files
	if len(obs) != 5 {
		t.Fatalf("observations=%d, want 5", len(obs))
	}
	reg := obs[0]
	if reg.Leaf != nil || reg.Parent == nil || reg.Parent.Key != reconcile.SingleKey("42") {
		t.Fatalf("series registration: %+v", reg)
	}
	if reg.Parent.Attrs.Title != "Show A" || *reg.Parent.Attrs.Path != "/tv/Show A" {
		t.Fatalf("series attrs: %+v", reg.Parent.Attrs)
	}

	linked := obs[1]
	if linked.Leaf.Key != reconcile.PathKey("/tv/Show A/s01e01.mkv") {
		t.Fatalf("leaf key=%v", linked.Leaf.Key)
	}
	if linked.Child == nil || linked.Child.Key != reconcile.SingleKey("4201") {
		t.Fatalf("child: %+v", linked.Child)
	}
	if *linked.Child.Attrs.Season != 1 || *linked.Child.Attrs.Episode != 1 {
		t.Fatal("season/episode numbers not carried")
	}

	// multi-episode file links through its first episode id
	multi := obs[2]
	if multi.Child == nil || multi.Child.Key != reconcile.SingleKey("4202") {
		t.Fatalf("multi-episode child: %+v", multi.Child)
	}

	// no episode ids and an unknown episode id both leave the child unset
	if obs[3].Child != nil {
		t.Fatalf("special carries a child: %+v", obs[3].Child)
	}
	if obs[4].Child != nil {
		t.Fatalf("stale episode id resolved: %+v", obs[4].Child)
	}
	if obs[4].Leaf.Key != reconcile.PathKey("/tv/Show A/deleted.mkv") {
		t.Fatalf("leaf key=%v", obs[4].Leaf.Key)
	}
}

func TestSourceAuthFailure(t *testing.T) {
	srv := fixtureServer(t)
	defer srv.Close()

	api := testApi(srv.URL)
	api.key = "wrong"
	err := NewSource(api).Each(context.Background(), func(reconcile.Observation) error { return nil })
	if !errors.Is(err, reconcile.ErrSourceUnavailable) {
		t.Fatalf("err=%v, want ErrSourceUnavailable", err)
	}
}

func TestSourceConnectionRefused(t *testing.T) {
	srv := fixtureServer(t)
	srv.Close()

	err := NewSource(testApi(srv.URL)).Each(context.Background(), func(reconcile.Observation) error { return nil })
	if !errors.Is(err, reconcile.ErrSourceUnavailable) {
		t.Fatalf("err=%v, want ErrSourceUnavailable", err)
	}
}
