// Package main provides the entry point for the sovereign CLI.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/clenoble/sovereign-sub001/cmd/sovereign/commands"
)

func main() {
	passphraseFlag := &cli.StringFlag{
		Name:  "passphrase",
		Usage: "master passphrase (falls back to SOVEREIGN_PASSPHRASE)",
	}

	cmd := &cli.Command{
		Name:    "sovereign",
		Usage:   "local-first sovereign knowledge OS security core",
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "unlock",
				Usage: "unlock the identity and report its device ID",
				Flags: []cli.Flag{passphraseFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunUnlock(ctx, cmd.String("passphrase"))
				},
			},
			{
				Name:  "serve",
				Usage: "start the local health/ready/metrics status server",
				Flags: []cli.Flag{
					passphraseFlag,
					&cli.StringFlag{Name: "addr", Value: "127.0.0.1:7418", Usage: "status server listen address"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServe(ctx, cmd.String("passphrase"), cmd.String("addr"))
				},
			},
			{
				Name:  "enroll-canary",
				Usage: "seal a canary phrase under the MasterKey and persist it to canary.enc",
				Flags: []cli.Flag{
					passphraseFlag,
					&cli.StringFlag{Name: "phrase", Required: true, Usage: "canary phrase to detect in typed input"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunEnrollCanary(ctx, cmd.String("passphrase"), cmd.String("phrase"))
				},
			},
			{
				Name:  "enroll-duress",
				Usage: "enroll a duress persona that unlocks a decoy identity under a separate passphrase",
				Flags: []cli.Flag{
					passphraseFlag,
					&cli.StringFlag{Name: "duress-passphrase", Required: true, Usage: "passphrase that unlocks the decoy identity"},
					&cli.StringFlag{Name: "duress-data-dir", Required: true, Usage: "data directory for the decoy identity"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunEnrollDuress(
						ctx,
						cmd.String("passphrase"),
						cmd.String("duress-passphrase"),
						cmd.String("duress-data-dir"),
					)
				},
			},
			{
				Name:  "rotate-kek",
				Usage: "generate and persist a new key-encryption key",
				Flags: []cli.Flag{passphraseFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRotateKek(ctx, cmd.String("passphrase"))
				},
			},
			{
				Name:  "verify-log",
				Usage: "walk the session log's hash chain end to end",
				Flags: []cli.Flag{passphraseFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunVerifyLog(ctx, cmd.String("passphrase"))
				},
			},
			{
				Name:  "create-guardian",
				Usage: "register a recovery guardian in pending status",
				Flags: []cli.Flag{
					passphraseFlag,
					&cli.StringFlag{Name: "id", Required: true, Usage: "guardian ID"},
					&cli.StringFlag{Name: "name", Required: true, Usage: "guardian display name"},
					&cli.StringFlag{Name: "peer-id", Usage: "paired device peer ID, if the guardian is a device"},
					&cli.StringFlag{Name: "contact", Usage: "manual contact description, if the guardian is not a device"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateGuardian(
						ctx,
						cmd.String("passphrase"),
						cmd.String("id"),
						cmd.String("name"),
						cmd.String("peer-id"),
						cmd.String("contact"),
					)
				},
			},
			{
				Name:  "enroll-guardian",
				Usage: "activate a guardian and split the master key once the quorum is active",
				Flags: []cli.Flag{
					passphraseFlag,
					&cli.StringFlag{Name: "id", Required: true, Usage: "guardian ID"},
					&cli.IntFlag{Name: "threshold", Required: true, Usage: "shares required to reconstruct"},
					&cli.IntFlag{Name: "total", Required: true, Usage: "total guardians to split across"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunEnrollGuardian(
						ctx,
						cmd.String("passphrase"),
						cmd.String("id"),
						int(cmd.Int("threshold")),
						int(cmd.Int("total")),
					)
				},
			},
			{
				Name:  "recover",
				Usage: "reconstruct the master key from a quorum of guardian shares",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "device-id", Required: true, Usage: "device ID recovery is being performed for"},
					&cli.IntFlag{Name: "threshold", Required: true, Usage: "shares required to reconstruct"},
					&cli.StringSliceFlag{Name: "share", Required: true, Usage: "base64 guardian share, repeatable"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRecover(
						ctx,
						cmd.String("device-id"),
						int(cmd.Int("threshold")),
						cmd.StringSlice("share"),
					)
				},
			},
			{
				Name:  "pair-device",
				Usage: "record a paired device using a shared secret from the pairing handshake",
				Flags: []cli.Flag{
					passphraseFlag,
					&cli.StringFlag{Name: "peer-id", Required: true, Usage: "remote device's peer ID"},
					&cli.StringFlag{Name: "name", Required: true, Usage: "remote device's display name"},
					&cli.StringFlag{Name: "shared-secret", Required: true, Usage: "base64 shared secret from the pairing handshake"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunPairDevice(
						ctx,
						cmd.String("passphrase"),
						cmd.String("peer-id"),
						cmd.String("name"),
						cmd.String("shared-secret"),
					)
				},
			},
			{
				Name:  "sync",
				Usage: "diff a local sync manifest against a remote peer's manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "local-manifest", Required: true, Usage: "path to the local manifest JSON file"},
					&cli.StringFlag{Name: "remote-manifest", Required: true, Usage: "path to the remote peer's manifest JSON file"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunSync(ctx, cmd.String("local-manifest"), cmd.String("remote-manifest"))
				},
			},
			{
				Name:  "migrate-documents",
				Usage: "convert pending plaintext documents into sealed C2+C3 envelopes",
				Flags: []cli.Flag{
					passphraseFlag,
					&cli.StringFlag{Name: "plaintext-dir", Required: true, Usage: "directory of pending *.txt documents"},
					&cli.StringFlag{Name: "encrypted-dir", Required: true, Usage: "directory migrated envelopes are written to"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrateDocuments(
						ctx,
						cmd.String("passphrase"),
						cmd.String("plaintext-dir"),
						cmd.String("encrypted-dir"),
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
