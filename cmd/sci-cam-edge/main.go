package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/starhopp3r/sci-cam-edge/internal/camera"
	"github.com/starhopp3r/sci-cam-edge/internal/control"
	"github.com/starhopp3r/sci-cam-edge/internal/scicam"
	"github.com/starhopp3r/sci-cam-edge/internal/storage"
	"github.com/starhopp3r/sci-cam-edge/pkg/buffer"
	"github.com/starhopp3r/sci-cam-edge/pkg/bus"
	"github.com/starhopp3r/sci-cam-edge/pkg/circuit"
	"github.com/starhopp3r/sci-cam-edge/pkg/config"
	"github.com/starhopp3r/sci-cam-edge/pkg/logger"
	"github.com/starhopp3r/sci-cam-edge/pkg/memcontrol"
	"github.com/starhopp3r/sci-cam-edge/pkg/metrics"
	"github.com/starhopp3r/sci-cam-edge/pkg/registration"
	"github.com/starhopp3r/sci-cam-edge/pkg/util"
	"github.com/starhopp3r/sci-cam-edge/pkg/worker"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := logger.InitLogger(false); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Log.Fatalw("Failed to load config", "error", err, "config_file", *configFile)
	}

	interval := cfg.GetFrameInterval()
	logger.Log.Infow("Configuration loaded",
		"config_file", *configFile,
		"protocol", cfg.Protocol,
		"camera_id", cfg.Camera.ID,
		"target_fps", cfg.TargetFPS,
		"interval", interval,
		"max_workers", cfg.Pipeline.MaxWorkers,
		"buffer_size", cfg.Pipeline.BufferSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var client bus.Client
	var brokerURL string
	if cfg.Protocol == "mqtt" {
		c, err := bus.NewMQTTClient(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			logger.Log.Fatalw("Failed to create mqtt client", "error", err)
		}
		client = c
		brokerURL = cfg.MQTT.Broker
	} else {
		c, err := bus.NewAMQPClient(cfg.AMQP.AmqpURL, cfg.AMQP.Exchange)
		if err != nil {
			logger.Log.Fatalw("Failed to create amqp client", "error", err)
		}
		client = c
		brokerURL = cfg.AMQP.AmqpURL
	}
	defer client.Close()

	publisher, err := scicam.NewPublisher(client)
	if err != nil {
		logger.Log.Fatalw("Failed to create sci cam publisher", "error", err)
	}

	// Config is validated on load, so the setters only reject if someone
	// relaxes Validate later.
	publisher.SetEnabled(cfg.Publish.Enabled)
	if !publisher.SetPublishSize(cfg.Publish.Width, cfg.Publish.Height) {
		logger.Log.Fatalw("Invalid publish size in config",
			"width", cfg.Publish.Width, "height", cfg.Publish.Height)
	}
	if !publisher.SetPublishType(cfg.Publish.Type) {
		logger.Log.Fatalw("Invalid publish type in config", "type", cfg.Publish.Type)
	}

	compressor, err := util.NewCompressor(3)
	if err != nil {
		logger.Log.Fatalw("Failed to create compressor", "error", err)
	}

	keyGen := storage.NewKeyGenerator(storage.KeyGeneratorConfig{
		Strategy: storage.StrategySequence,
		Prefix:   cfg.Redis.Prefix,
		CameraID: cfg.Camera.ID,
	})
	frameCache := storage.NewFrameCache(cfg.Redis.Address, cfg.Redis.TTLSeconds, keyGen, compressor, cfg.Redis.Enabled)
	defer frameCache.Close()

	workerPool := worker.NewPool(ctx, "publish", cfg.Pipeline.MaxWorkers, cfg.Pipeline.BufferSize)
	defer workerPool.Close()

	frameBuffer := buffer.NewFrameBuffer(cfg.Pipeline.BufferSize)
	defer frameBuffer.Close()

	resetTimeout := time.Duration(cfg.Pipeline.CircuitResetSec) * time.Second
	circuitBreaker := circuit.NewBreaker(cfg.Camera.ID, int64(cfg.Pipeline.CircuitMaxFailures), resetTimeout)

	memController := memcontrol.NewController(cfg.Memory.MaxMemoryMB)
	memController.Start(10 * time.Second)
	defer memController.Stop()

	capture := camera.NewCapture(
		ctx,
		cfg.Camera,
		interval,
		publisher,
		frameCache,
		frameBuffer,
		workerPool,
		circuitBreaker,
		memController,
	)
	capture.Start()

	logger.Log.Infow("Camera started",
		"camera_id", cfg.Camera.ID,
		"url", cfg.Camera.URL,
		"transport", cfg.Camera.Transport)

	controlServer := control.NewServer(cfg.Control.Address, publisher, func() map[string]interface{} {
		return map[string]interface{}{
			"camera":  capture.Monitor().Status(),
			"buffer":  frameBuffer.Stats(),
			"workers": workerPool.Stats(),
			"circuit": circuitBreaker.Stats(),
			"memory":  memController.Stats(),
		}
	})
	go func() {
		if err := controlServer.Start(ctx); err != nil {
			logger.Log.Errorw("Control server error", "error", err)
		}
	}()

	regClient := registration.NewClient(cfg.Registration.APIURL, cfg.Registration.Enabled)
	go regClient.RegisterWithRetry(ctx, registration.RegistrationPayload{
		NodeID:    hostname(),
		CameraID:  cfg.Camera.ID,
		Protocol:  cfg.Protocol,
		BrokerURL: brokerURL,
		Topics:    []string{bus.ImageTopic(), bus.InfoTopic()},
	})

	go monitorBus(ctx, client)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Log.Info("Shutdown signal received, stopping...")
	cancel()

	time.Sleep(2 * time.Second)

	logger.Log.Info("Shutdown complete")
}

func monitorBus(ctx context.Context, client bus.Client) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if client.Connected() {
				metrics.BusConnected.Set(1)
			} else {
				metrics.BusConnected.Set(0)
				logger.Log.Warn("Bus connection is down")
			}
		}
	}
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "sci-cam-node"
	}
	return name
}
