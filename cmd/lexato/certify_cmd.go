package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/LexatoBR/lexato-extension-sub005/internal/config"
	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/backend"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/logger"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/push"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/resiliency"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/validation"
	"github.com/LexatoBR/lexato-extension-sub005/internal/usecase"
	"github.com/LexatoBR/lexato-extension-sub005/pkg/capture"
)

type certifyOutput struct {
	Local         domain.LocalResult         `json:"local"`
	Certification domain.CertificationResult `json:"certification,omitempty"`
}

func runCertify(args []string) int {
	fs := flag.NewFlagSet("certify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var manifestPath string
	var storage string
	var backendURL string
	var validationURL string
	var outPath string
	fs.StringVar(&manifestPath, "manifest", "", "capture manifest JSON path")
	fs.StringVar(&storage, "storage", string(domain.StorageStandard), "storage type")
	fs.StringVar(&backendURL, "backend", "", "certification backend base url")
	fs.StringVar(&validationURL, "validation", "", "level-2 validation endpoint url")
	fs.StringVar(&outPath, "out", "", "output JSON path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if manifestPath == "" {
		fmt.Fprintln(os.Stderr, "certify requires --manifest")
		return 1
	}

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read manifest: %v\n", err)
		return 1
	}
	var manifest capture.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		fmt.Fprintf(os.Stderr, "parse manifest: %v\n", err)
		return 1
	}
	if manifest.CaptureID == "" {
		fmt.Fprintln(os.Stderr, "manifest is missing capture_id")
		return 1
	}

	cfg := config.FromEnv()
	if backendURL != "" {
		cfg.BackendURL = backendURL
	}
	if validationURL != "" {
		cfg.ValidationURL = validationURL
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	defer zlog.Sync()

	transport, err := validation.Select(cfg.ValidationURL, cfg.Production(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validation transport: %v\n", err)
		return 1
	}

	local := usecase.NewPCCLocal(transport, cfg.ExtensionVersion, cfg.ValidationTimeout, nil, zlog)

	ctx := context.Background()
	out := certifyOutput{
		Local: local.Execute(ctx, manifest.Input(), func(percent int) {
			zlog.Infow("local certification progress", "percent", percent)
		}),
	}
	if !out.Local.Success {
		return writeResult(outPath, out, 1)
	}

	if cfg.BackendURL == "" {
		zlog.Infow("no backend configured, stopping after level 2",
			"final_hash", out.Local.FinalHash)
		return writeResult(outPath, out, 0)
	}

	client, err := backend.NewClient(cfg.BackendURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend client: %v\n", err)
		return 1
	}

	var channel usecase.PushChannel
	if cfg.PushURL != "" {
		channel = push.NewChannel(cfg.PushURL, zlog)
	}

	integration := usecase.NewBackendIntegration(
		client,
		resiliency.NewRegistry(nil),
		channel,
		usecase.IntegrationConfig{
			Level3Timeout:   cfg.Level3Timeout,
			Level4Timeout:   cfg.Level4Timeout,
			PollInterval:    cfg.PollInterval,
			PollMaxInterval: cfg.PollMaxInterval,
		},
		nil,
		zlog,
	)

	out.Certification = integration.SubmitForCertification(ctx, manifest.CaptureID, out.Local.Level2, domain.StorageType(storage))

	code := 0
	if !out.Certification.Success && !out.Certification.IsPartial {
		code = 1
	}
	return writeResult(outPath, out, code)
}

func writeResult(path string, out certifyOutput, code int) int {
	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal result: %v\n", err)
		return 1
	}
	if path == "" {
		fmt.Println(string(payload))
		return code
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write result: %v\n", err)
		return 1
	}
	return code
}
