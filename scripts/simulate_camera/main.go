package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// Drives the occupancy ingest endpoint with synthetic camera readings so the
// status board can be exercised without real detection hardware.

type reading struct {
	CurrentCount        int     `json:"current_count"`
	DetectionConfidence float64 `json:"detection_confidence"`
	CameraID            *string `json:"camera_id"`
}

type roomState struct {
	id       string
	capacity int
	count    int
}

func main() {
	var (
		baseURL   string
		apiPrefix string
		rooms     string
		capacity  int
		interval  time.Duration
		jitter    float64
		once      bool
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&apiPrefix, "prefix", "/api", "API route prefix")
	flag.StringVar(&rooms, "rooms", "", "Comma-separated classroom IDs to simulate")
	flag.IntVar(&capacity, "capacity", 40, "Assumed room capacity for count generation")
	flag.DurationVar(&interval, "interval", 30*time.Second, "Delay between update rounds")
	flag.Float64Var(&jitter, "jitter", 0.2, "Fraction of capacity a count may drift per round")
	flag.BoolVar(&once, "once", false, "Push a single round and exit")
	flag.Parse()

	ids := splitIDs(rooms)
	if len(ids) == 0 {
		log.Fatal("at least one classroom ID is required (-rooms a,b,c)")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	states := make([]*roomState, len(ids))
	for i, id := range ids {
		states[i] = &roomState{id: id, capacity: capacity, count: rng.Intn(capacity + 1)}
	}

	client := &http.Client{Timeout: 10 * time.Second}
	endpoint := strings.TrimRight(baseURL, "/") + apiPrefix

	for {
		for _, state := range states {
			state.drift(rng, jitter)
			if err := push(client, endpoint, state, rng); err != nil {
				log.Printf("room %s: %v", state.id, err)
				continue
			}
			log.Printf("room %s: count=%d", state.id, state.count)
		}
		if once {
			return
		}
		time.Sleep(interval)
	}
}

// drift walks the count a bounded random step so consecutive readings look
// like people entering and leaving rather than white noise.
func (s *roomState) drift(rng *rand.Rand, jitter float64) {
	maxStep := int(float64(s.capacity) * jitter)
	if maxStep < 1 {
		maxStep = 1
	}
	s.count += rng.Intn(2*maxStep+1) - maxStep
	if s.count < 0 {
		s.count = 0
	}
	if s.count > s.capacity {
		s.count = s.capacity
	}
}

func push(client *http.Client, endpoint string, state *roomState, rng *rand.Rand) error {
	cameraID := fmt.Sprintf("sim-cam-%s", state.id)
	payload := reading{
		CurrentCount:        state.count,
		DetectionConfidence: 0.7 + rng.Float64()*0.3,
		CameraID:            &cameraID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/classrooms/%s/occupancy", endpoint, state.id)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
