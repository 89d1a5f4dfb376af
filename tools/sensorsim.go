package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Simulates greenhouse devices posting day/night sensor cycles, with an
// optional anomaly spike injected near the end of the run. Useful for both
// load testing and eyeballing detector behavior.

var (
	requestCount int64
	successCount int64
	failCount    int64
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run tools/sensorsim.go <url> [devices] [interval] [duration] [spike]")
		fmt.Println("Example: go run tools/sensorsim.go http://localhost:8080/readings 5 100ms 60s true")
		os.Exit(1)
	}

	url := os.Args[1]
	devices := 5
	interval := 100 * time.Millisecond
	duration := 60 * time.Second
	spike := false

	if len(os.Args) > 2 {
		fmt.Sscanf(os.Args[2], "%d", &devices)
	}
	if len(os.Args) > 3 {
		if d, err := time.ParseDuration(os.Args[3]); err == nil {
			interval = d
		}
	}
	if len(os.Args) > 4 {
		if d, err := time.ParseDuration(os.Args[4]); err == nil {
			duration = d
		}
	}
	if len(os.Args) > 5 && os.Args[5] == "true" {
		spike = true
	}

	fmt.Printf("Sensor Simulation:\n")
	fmt.Printf("  URL: %s\n", url)
	fmt.Printf("  Devices: %d\n", devices)
	fmt.Printf("  Interval: %v\n", interval)
	fmt.Printf("  Duration: %v\n", duration)
	fmt.Printf("  Inject spike: %v\n\n", spike)

	startTime := time.Now()
	endTime := startTime.Add(duration)

	var wg sync.WaitGroup
	for d := 0; d < devices; d++ {
		wg.Add(1)
		go func(deviceNum int) {
			defer wg.Done()
			simulateDevice(url, deviceNum, interval, endTime, spike)
		}(d)
	}
	wg.Wait()

	total := atomic.LoadInt64(&requestCount)
	fmt.Printf("\nSent %d readings (%d ok, %d failed) in %v\n",
		total,
		atomic.LoadInt64(&successCount),
		atomic.LoadInt64(&failCount),
		time.Since(startTime).Round(time.Millisecond))
}

func simulateDevice(url string, deviceNum int, interval time.Duration, endTime time.Time, spike bool) {
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	deviceID := fmt.Sprintf("greenhouse-%02d", deviceNum)
	tick := 0
	for time.Now().Before(endTime) {
		sendReading(client, url, deviceID, tick, spike && time.Until(endTime) < 2*interval)
		tick++
		time.Sleep(interval)
	}
}

func sendReading(client *http.Client, url, deviceID string, tick int, injectSpike bool) {
	// 144 ticks per simulated day: temperature 20-24, humidity 55-65.
	phase := 2 * math.Pi * float64(tick%144) / 144
	temperature := 22 + 2*math.Sin(phase)
	humidity := 60 + 5*math.Cos(phase)

	if injectSpike {
		temperature = 45
	}

	reading := map[string]interface{}{
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"device_id":   deviceID,
		"temperature": temperature,
		"humidity":    humidity,
	}

	jsonData, _ := json.Marshal(reading)
	req, _ := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	atomic.AddInt64(&requestCount, 1)
	if err != nil {
		atomic.AddInt64(&failCount, 1)
		return
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		atomic.AddInt64(&successCount, 1)
	} else {
		atomic.AddInt64(&failCount, 1)
	}
}
