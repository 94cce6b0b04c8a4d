// push_scenario.go: standalone script to post the personas and services of a
// scenario file to a running Impact API.
//
// Usage:
//
//	go run scripts/push_scenario.go -scenario scenario.yaml -api http://localhost:8700 -token $IMPACT_ADMIN_TOKEN
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/MikeSquared-Agency/Impact/internal/seed"
)

func main() {
	scenarioPath := flag.String("scenario", "", "scenario YAML file (empty = built-in default)")
	model := flag.String("model", "experience", "model of the built-in scenario")
	apiURL := flag.String("api", "http://localhost:8700", "Impact API base URL")
	token := flag.String("token", "", "admin bearer token")
	dryRun := flag.Bool("dry-run", false, "print entities without posting")
	flag.Parse()

	var (
		sc  seed.Scenario
		err error
	)
	if *scenarioPath != "" {
		sc, err = seed.LoadFile(*scenarioPath)
	} else {
		sc, err = seed.Default(*model)
	}
	if err != nil {
		log.Fatalf("load scenario: %v", err)
	}

	log.Printf("scenario has %d personas and %d services", len(sc.Personas), len(sc.Services))

	if *dryRun {
		for i, p := range sc.Personas {
			fmt.Printf("[persona %d] %s (%s, relevance=%.0f, journey=%v)\n", i+1, p.Name, p.ID, p.Relevance, p.Journey)
		}
		for i, s := range sc.Services {
			fmt.Printf("[service %d] %s (%s, cost=%.0f, enabled=%t)\n", i+1, s.Name, s.ID, s.Cost, s.Enabled)
		}
		return
	}

	client := &http.Client{}
	post := func(path, label string, v interface{}) bool {
		body, _ := json.Marshal(v)
		req, err := http.NewRequest("POST", *apiURL+path, bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %s: %v", label, err)
			return false
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Client-ID", "push-scenario")
		if *token != "" {
			req.Header.Set("Authorization", "Bearer "+*token)
		}
		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %s: %v", label, err)
			return false
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			log.Printf("skip %s: status %d", label, resp.StatusCode)
			return false
		}
		return true
	}

	created, skipped := 0, 0
	for _, p := range sc.Personas {
		if post("/api/v1/personas", "persona "+p.ID, p) {
			created++
		} else {
			skipped++
		}
	}
	for _, s := range sc.Services {
		if post("/api/v1/services", "service "+s.ID, s) {
			created++
		} else {
			skipped++
		}
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}
