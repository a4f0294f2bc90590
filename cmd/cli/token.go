package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"hookci/internal/security"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:   "token",
		Usage:  "print a random webhook token",
		Action: printToken,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "bytes",
				Usage: "random bytes in the token",
				Value: security.DefaultTokenBytes,
			},
		},
	}
}

func printToken(ctx context.Context, cmd *cli.Command) error {
	token, err := security.GenerateToken(int(cmd.Int("bytes")))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Fprintln(cmd.Root().Writer, token)
	return nil
}
