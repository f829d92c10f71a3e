package plex

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
		token:   "test-token",
		timeout: 5 * time.Second,
		cl:      http.DefaultClient,
	}
}

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	fixtures := map[string]string{
		"/library/sections": `<MediaContainer>
			<Directory key="1" type="show" title="TV Shows"/>
			<Directory key="2" type="movie" title="Movies"/>
		</MediaContainer>`,
		"/library/sections/1/all": `<MediaContainer>
			<Directory key="/library/metadata/10/children" type="show" title="Show A"/>
		</MediaContainer>`,
		"/library/metadata/10/children": `<MediaContainer>
			<Directory key="/library/metadata/11/children" type="season" title="Season 1" index="1"/>
		</MediaContainer>`,
		"/library/metadata/11/children": `<MediaContainer>
			<Video key="/library/metadata/12" index="1">
				<Media><Part file="/tv/Show A/s01e01.mkv"/></Media>
			</Video>
			<Video key="/library/metadata/13" index="2">
				<Media><Part file="/tv/Show A/s01e02.mkv"/><Part file="/tv/Show A/s01e02.part2.mkv"/></Media>
			</Video>
		</MediaContainer>`,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Plex-Token") != "test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := fixtures[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
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

	// show registration + 3 parts
	if len(obs) != 4 {
		t.Fatalf("observations=%d, want 4", len(obs))
	}
	reg := obs[0]
	if reg.Leaf != nil || reg.Parent == nil || reg.Parent.Attrs.Title != "Show A" {
		t.Fatalf("show registration: %+v", reg)
	}
	showKey := reconcile.SingleKey("/library/metadata/10/children")
	if reg.Parent.Key != showKey {
		t.Fatalf("show key=%v", reg.Parent.Key)
	}

	first := obs[1]
	if first.Leaf.Key != reconcile.CompositeKey("s01e01.mkv", "/tv/Show A") {
		t.Fatalf("first leaf key=%v", first.Leaf.Key)
	}
	if first.Parent.Key != showKey {
		t.Fatal("part not attributed to its show")
	}
	if first.Child == nil || first.Child.Key != reconcile.SingleKey("/library/metadata/12") {
		t.Fatalf("first child: %+v", first.Child)
	}
	if *first.Child.Attrs.Season != 1 || *first.Child.Attrs.Episode != 1 {
		t.Fatal("season/episode indexes not carried")
	}

	// both parts of the multi-part episode share the child key
	if obs[2].Child.Key != obs[3].Child.Key {
		t.Fatal("multi-part episode split across child keys")
	}
	if obs[3].Leaf.Key != reconcile.CompositeKey("s01e02.part2.mkv", "/tv/Show A") {
		t.Fatalf("second part key=%v", obs[3].Leaf.Key)
	}
}

func TestSourceAuthFailure(t *testing.T) {
	srv := fixtureServer(t)
	defer srv.Close()

	api := testApi(srv.URL)
	api.token = "wrong"
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

func TestTVSectionsFiltersShows(t *testing.T) {
	srv := fixtureServer(t)
	defer srv.Close()

	sections, err := testApi(srv.URL).TVSections(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 1 || sections[0].Title != "TV Shows" {
		t.Fatalf("sections=%+v", sections)
	}
}
