// Copyright 2025 The Campaigner Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package research

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// Idle keep-alive connections from httptest clients are torn down
	// lazily; they are not leaks.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

// newFeedServer serves an RSS feed under /rss whose items link back to
// the server's own /article/{n} pages.
func newFeedServer(t *testing.T, articles map[string]string, brokenLinks []string) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		var items strings.Builder
		names := make([]string, 0, len(articles))
		for name := range articles {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&items, "<item><title>%s</title><link>%s/article/%s</link></item>", name, srv.URL, name)
		}
		for _, link := range brokenLinks {
			fmt.Fprintf(&items, "<item><title>broken</title><link>%s%s</link></item>", srv.URL, link)
		}
		fmt.Fprintf(w, "<rss><channel>%s</channel></rss>", items.String())
	})
	mux.HandleFunc("/article/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/article/")
		body, ok := articles[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "<html><head><title>x</title><script>var a=1;</script></head><body><p>%s</p></body></html>", body)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResearch(t *testing.T) {
	srv := newFeedServer(t, map[string]string{
		"one": "Severe   flooding reported\nacross the region.",
	}, nil)

	tool := New(Config{FeedURL: srv.URL + "/rss", MaxResults: 3}, nil)
	records, err := tool.Research(context.Background(), "Testville")
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Research() returned %d records, want 1", len(records))
	}
	if records[0].Title != "one" {
		t.Errorf("Title = %q, want %q", records[0].Title, "one")
	}
	if want := "Severe flooding reported across the region."; records[0].Text != want {
		t.Errorf("Text = %q, want %q", records[0].Text, want)
	}
	if records[0].RetrievedAt.IsZero() {
		t.Error("RetrievedAt is zero")
	}
}

func TestResearch_FailedFetchKeepsRecord(t *testing.T) {
	srv := newFeedServer(t, nil, []string{"/article/missing"})

	tool := New(Config{FeedURL: srv.URL + "/rss"}, nil)
	records, err := tool.Research(context.Background(), "Testville")
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Research() returned %d records, want 1", len(records))
	}
	if records[0].Text != "" {
		t.Errorf("Text = %q, want empty for failed fetch", records[0].Text)
	}
	if records[0].URL == "" {
		t.Error("URL dropped for failed fetch")
	}
}

func TestResearch_MalformedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not xml <<<<")
	}))
	defer srv.Close()

	tool := New(Config{FeedURL: srv.URL}, nil)
	records, err := tool.Research(context.Background(), "Testville")
	if err == nil {
		t.Fatal("Research() expected advisory error for malformed feed")
	}
	if len(records) != 0 {
		t.Errorf("Research() returned %d records, want 0", len(records))
	}
}

func TestResearch_FeedUnreachable(t *testing.T) {
	tool := New(Config{FeedURL: "http://127.0.0.1:1/rss"}, nil)
	records, err := tool.Research(context.Background(), "Testville")
	if err == nil {
		t.Fatal("Research() expected advisory error for unreachable feed")
	}
	if records != nil {
		t.Errorf("Research() records = %v, want nil", records)
	}
}

func TestResearch_MaxResultsAndOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss" {
			http.NotFound(w, r)
			return
		}
		var items strings.Builder
		for i := 1; i <= 8; i++ {
			fmt.Fprintf(&items, "<item><title>t%d</title><link>http://127.0.0.1:1/a%d</link></item>", i, i)
		}
		fmt.Fprintf(w, "<rss><channel>%s</channel></rss>", items.String())
	}))
	defer srv.Close()

	tool := New(Config{FeedURL: srv.URL + "/rss", MaxResults: 3}, nil)
	records, err := tool.Research(context.Background(), "Testville")
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Research() returned %d records, want 3", len(records))
	}
	for i, rec := range records {
		if want := fmt.Sprintf("t%d", i+1); rec.Title != want {
			t.Errorf("records[%d].Title = %q, want %q (feed order preserved)", i, rec.Title, want)
		}
	}
}

func TestResearch_Idempotent(t *testing.T) {
	srv := newFeedServer(t, map[string]string{
		"alpha": "first article",
		"beta":  "second article",
	}, nil)

	tool := New(Config{FeedURL: srv.URL + "/rss"}, nil)
	first, err := tool.Research(context.Background(), "Testville")
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}
	second, err := tool.Research(context.Background(), "Testville")
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Title != second[i].Title || first[i].URL != second[i].URL {
			t.Errorf("records[%d] differ structurally: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestParseFeed_DropsLinklessItems(t *testing.T) {
	data := []byte(`<rss><channel>
		<item><title>has link</title><link>http://example.com/a</link></item>
		<item><title>no link</title></item>
	</channel></rss>`)

	items, err := parseFeed(data)
	if err != nil {
		t.Fatalf("parseFeed() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("parseFeed() returned %d items, want 1", len(items))
	}
	if items[0].Title != "has link" {
		t.Errorf("Title = %q, want %q", items[0].Title, "has link")
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips markup and collapses whitespace",
			in:   "<html><body><h1>Flood  News</h1>\n<p>Rivers\trising.</p></body></html>",
			want: "Flood News Rivers rising.",
		},
		{
			name: "skips script and style",
			in:   "<html><body><script>alert(1)</script><style>p{}</style><p>kept</p></body></html>",
			want: "kept",
		},
		{
			name: "skips nav and footer",
			in:   "<html><body><nav>menu</nav><p>story</p><footer>legal</footer></body></html>",
			want: "story",
		},
		{
			name: "empty document",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractText(strings.NewReader(tt.in))
			if got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}
