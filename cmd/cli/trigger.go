package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"hookci/internal/webhook"
)

func triggerCommand() *cli.Command {
	return &cli.Command{
		Name:      "trigger",
		Usage:     "send a test webhook to a running server",
		ArgsUsage: "<pipelineId>",
		Action:    sendTrigger,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "token",
				Usage:    "webhook token",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "event",
				Usage: "X-Gitlab-Event header value",
				Value: "Push Hook",
			},
			&cli.StringFlag{
				Name:  "server",
				Usage: "hookci server base url",
				Value: "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:  "payload",
				Usage: "JSON payload file (default: {})",
			},
		},
	}
}

func sendTrigger(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return cli.Exit("missing pipeline id argument", 1)
	}

	payload := []byte("{}")
	if file := cmd.String("payload"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to read payload: %v", err), 1)
		}
		payload = data
	}

	endpoint, err := url.JoinPath(cmd.String("server"), "webhooks", "gitlab", id)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid server url: %v", err), 1)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.EventHeader, cmd.String("event"))
	req.Header.Set(webhook.TokenHeader, cmd.String("token"))

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to send request: %v", err), 1)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	fmt.Fprintln(cmd.Root().Writer, resp.Status)
	if resp.StatusCode != http.StatusAccepted {
		return cli.Exit("webhook was not accepted", 1)
	}
	return nil
}
