// Mockprovider is a fake news search API used for aggregator testing.
// It provides /v2/everything and /health endpoints and can simulate
// failures to exercise the retry handler and circuit breaker.
//
// Usage:
//
//	go run mockprovider.go -port 8081 -name newsapi
//	go run mockprovider.go -port 8082 -name guardian -fail-rate 0.5
//	go run mockprovider.go -port 8083 -name reuters -status 500
//
// The server logs all requests and returns JSON article lists.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

type article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Author      string `json:"author"`
	Source      struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
}

func main() {
	port := flag.Int("port", 8081, "port to listen on")
	name := flag.String("name", "mock", "provider name reported in articles")
	articles := flag.Int("articles", 5, "number of articles per response")
	failRate := flag.Float64("fail-rate", 0, "probability of returning a 500")
	status := flag.Int("status", 0, "always return this status code (0 disables)")
	delay := flag.Duration("delay", 0, "artificial response delay")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/everything", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		log.Printf("request: path=%s q=%s from=%s", r.URL.Path, query, r.RemoteAddr)

		if *delay > 0 {
			time.Sleep(*delay)
		}

		if *status != 0 {
			http.Error(w, "simulated failure", *status)
			return
		}

		if *failRate > 0 && rand.Float64() < *failRate {
			http.Error(w, "simulated transient failure", http.StatusInternalServerError)
			return
		}

		items := make([]article, *articles)
		for i := range items {
			items[i] = article{
				Title:       fmt.Sprintf("%s story %d about %s", *name, i+1, query),
				Description: fmt.Sprintf("Generated article %d matching %q", i+1, query),
				URL:         fmt.Sprintf("http://localhost:%d/articles/%d", *port, i+1),
				PublishedAt: time.Now().UTC().Format(time.RFC3339),
				Author:      "Mock Reporter",
			}
			items[i].Source.ID = *name
			items[i].Source.Name = *name
		}

		resp := map[string]any{
			"status":        "ok",
			"total_results": len(items),
			"articles":      items,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("encode failed: %v", err)
		}
	})

	// health endpoint used by the aggregator's provider health checks
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if *status != 0 {
			http.Error(w, "unhealthy", *status)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("starting mock provider %q on %s", *name, addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
