package main

import (
	"flag"
	"fmt"

	"github.com/starhopp3r/sci-cam-edge/pkg/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		return
	}

	fmt.Println("✅ Configuration loaded successfully!")
	fmt.Println("\n=== Main Parameters ===")
	fmt.Printf("Target FPS: %v\n", cfg.TargetFPS)
	fmt.Printf("Protocol: %s\n", cfg.Protocol)

	fmt.Println("\n=== Camera ===")
	fmt.Printf("ID: %s\n", cfg.Camera.ID)
	fmt.Printf("URL: %s\n", cfg.Camera.URL)
	fmt.Printf("Transport: %s\n", cfg.Camera.Transport)

	fmt.Println("\n=== AMQP ===")
	fmt.Printf("AMQP URL: %s\n", cfg.AMQP.AmqpURL)
	fmt.Printf("Exchange: %s\n", cfg.AMQP.Exchange)

	fmt.Println("\n=== MQTT ===")
	fmt.Printf("Broker: %s\n", cfg.MQTT.Broker)
	fmt.Printf("Client ID: %s\n", cfg.MQTT.ClientID)

	fmt.Println("\n=== Publish ===")
	fmt.Printf("Enabled: %v\n", cfg.Publish.Enabled)
	fmt.Printf("Size: %dx%d\n", cfg.Publish.Width, cfg.Publish.Height)
	fmt.Printf("Type: %s\n", cfg.Publish.Type)

	fmt.Println("\n=== Pipeline ===")
	fmt.Printf("Max Workers: %d\n", cfg.Pipeline.MaxWorkers)
	fmt.Printf("Buffer Size: %d\n", cfg.Pipeline.BufferSize)
	fmt.Printf("Circuit Max Failures: %d\n", cfg.Pipeline.CircuitMaxFailures)
	fmt.Printf("Circuit Reset Seconds: %d\n", cfg.Pipeline.CircuitResetSec)

	fmt.Println("\n=== Redis ===")
	fmt.Printf("Enabled: %v\n", cfg.Redis.Enabled)
	fmt.Printf("Address: %s\n", cfg.Redis.Address)
	fmt.Printf("TTL Seconds: %d\n", cfg.Redis.TTLSeconds)
	fmt.Printf("Prefix: %s\n", cfg.Redis.Prefix)

	fmt.Println("\n=== Registration ===")
	fmt.Printf("Enabled: %v\n", cfg.Registration.Enabled)
	fmt.Printf("API URL: %s\n", cfg.Registration.APIURL)

	fmt.Println("\n=== Control ===")
	fmt.Printf("Address: %s\n", cfg.Control.Address)

	interval := cfg.GetFrameInterval()
	fmt.Printf("\n=== Derived ===\n")
	fmt.Printf("Frame Interval: %v\n", interval)
	fmt.Printf("Effective FPS: %.2f\n", float64(1)/interval.Seconds())
}
