package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shinyes/pastpaper/internal/app"
	"github.com/shinyes/pastpaper/internal/service"
)

// adminCLI runs maintenance commands against a built container. The same
// commands back both `server admin` and the runtime console.
type adminCLI struct {
	container *app.Container
	out       io.Writer
}

func (a *adminCLI) execute(ctx context.Context, args []string) error {
	switch args[0] {
	case "sync":
		return a.sync(ctx)
	case "export":
		return a.export(ctx, args[1:])
	case "import":
		return a.importFile(ctx, args[1:])
	case "snapshot":
		return a.snapshot(ctx, args[1:])
	case "clear":
		if err := a.container.QuestionService.ClearQuestions(ctx); err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}
		fmt.Fprintln(a.out, "all questions removed")
		return nil
	case "user":
		return a.user(ctx, args[1:])
	case "token":
		return a.token(ctx, args[1:])
	default:
		printUsage(a.out)
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func (a *adminCLI) sync(ctx context.Context) error {
	if a.container.Syncer == nil {
		return fmt.Errorf("spreadsheet sync is not configured, set SHEETS_URL")
	}
	result, err := a.container.Syncer.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Fprintf(a.out, "sync complete: run=%s imported=%d skipped=%d duration=%s\n", result.RunID, result.Imported, result.Skipped, result.Duration)
	return nil
}

func (a *adminCLI) export(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: admin export <file|->")
	}
	snap, err := a.container.ArchiveService.Export(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	target := strings.TrimSpace(args[0])
	if target == "-" {
		_, err := a.out.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(a.out, "exported %d questions to %s\n", snap.QuestionCount, target)
	return nil
}

func (a *adminCLI) importFile(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: admin import <file>")
	}
	data, err := os.ReadFile(strings.TrimSpace(args[0]))
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	result, err := a.container.ArchiveService.Import(ctx, data)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(a.out, "import complete: imported=%d skipped=%d\n", result.Imported, result.Skipped)
	return nil
}

func (a *adminCLI) snapshot(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: admin snapshot <save|list|restore <key>|delete <key>>")
	}
	archive := a.container.ArchiveService
	switch args[0] {
	case "save":
		obj, err := archive.SaveSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("save snapshot failed: %w", err)
		}
		fmt.Fprintf(a.out, "snapshot saved: key=%s size=%d\n", obj.Key, obj.Size)
		return nil
	case "list":
		items, err := archive.ListSnapshots(ctx)
		if err != nil {
			return fmt.Errorf("list snapshots failed: %w", err)
		}
		fmt.Fprintf(a.out, "snapshots count=%d\n", len(items))
		for _, item := range items {
			fmt.Fprintf(a.out, "%s\t%d\n", item.Key, item.Size)
		}
		return nil
	case "restore":
		if len(args) < 2 {
			return fmt.Errorf("usage: admin snapshot restore <key>")
		}
		result, err := archive.RestoreSnapshot(ctx, args[1])
		if err != nil {
			return fmt.Errorf("restore snapshot failed: %w", err)
		}
		fmt.Fprintf(a.out, "restore complete: imported=%d skipped=%d\n", result.Imported, result.Skipped)
		return nil
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: admin snapshot delete <key>")
		}
		if err := archive.DeleteSnapshot(ctx, args[1]); err != nil {
			return fmt.Errorf("delete snapshot failed: %w", err)
		}
		fmt.Fprintf(a.out, "snapshot deleted: key=%s\n", args[1])
		return nil
	default:
		return fmt.Errorf("unknown snapshot subcommand: %s", args[0])
	}
}

func (a *adminCLI) user(ctx context.Context, args []string) error {
	if len(args) >= 3 && args[0] == "password" {
		if err := a.container.UserService.SetPassword(ctx, args[1], args[2]); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("user not found: %s", args[1])
			}
			return fmt.Errorf("set password failed: %w", err)
		}
		fmt.Fprintf(a.out, "password updated: user=%s\n", args[1])
		return nil
	}
	if len(args) < 3 || args[0] != "create" {
		return fmt.Errorf("usage: admin user create <username> <password> [display_name] [role]")
	}

	input := service.CreateUserInput{
		Username: strings.TrimSpace(args[1]),
		Password: strings.TrimSpace(args[2]),
	}
	if len(args) >= 4 {
		input.DisplayName = strings.TrimSpace(args[3])
	}
	if len(args) >= 5 {
		input.Role = strings.TrimSpace(args[4])
	}

	user, err := a.container.UserService.CreateUser(ctx, input)
	if err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	fmt.Fprintf(a.out, "user created: id=%d username=%s role=%s\n", user.ID, user.Username, user.Role)
	return nil
}

func (a *adminCLI) token(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: admin token <create|list|revoke> ...")
	}
	switch args[0] {
	case "create":
		return a.tokenCreate(ctx, args[1:])
	case "list":
		return a.tokenList(ctx, args[1:])
	case "revoke":
		return a.tokenRevoke(ctx, args[1:])
	default:
		return fmt.Errorf("unknown token subcommand: %s", args[0])
	}
}

func (a *adminCLI) tokenCreate(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: admin token create <username_or_id> [description] [--ttl 7d|24h] [--expires-at 2026-12-31T23:59:59Z]")
	}

	identifier := strings.TrimSpace(args[0])
	flagSet := flag.NewFlagSet("admin token create", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	descriptionFlag := flagSet.String("description", "", "token description")
	ttlFlag := flagSet.String("ttl", "", "token ttl, e.g. 24h")
	expiresAtFlag := flagSet.String("expires-at", "", "token expiry in RFC3339")
	flagArgs, positional := splitFlags(args[1:])
	if err := flagSet.Parse(flagArgs); err != nil {
		return fmt.Errorf("parse token args failed: %w", err)
	}

	description := strings.TrimSpace(*descriptionFlag)
	if description != "" && len(positional) > 0 {
		return fmt.Errorf("description already set by --description, remove extra positional text")
	}
	if description == "" {
		description = strings.TrimSpace(strings.Join(positional, " "))
	}

	expiresAt, err := tokenExpiry(strings.TrimSpace(*ttlFlag), strings.TrimSpace(*expiresAtFlag))
	if err != nil {
		return err
	}

	user, token, err := a.container.UserService.CreateAccessTokenForUserWithExpiry(ctx, identifier, description, expiresAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenAlreadyExists):
			return fmt.Errorf("create token failed: token collision, please retry")
		case errors.Is(err, service.ErrInvalidTokenExpiry):
			return fmt.Errorf("create token failed: expires-at must be in the future")
		}
		return fmt.Errorf("create token failed: %w", err)
	}
	fmt.Fprintf(a.out, "token created: user=%s(%d)\n", user.Username, user.ID)
	fmt.Fprintf(a.out, "accessToken=%s\n", token)
	if expiresAt != nil {
		fmt.Fprintf(a.out, "expiresAt=%s\n", expiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}

// tokenExpiry resolves the mutually exclusive --ttl and --expires-at flags.
func tokenExpiry(ttlRaw string, expiresAtRaw string) (*time.Time, error) {
	if ttlRaw != "" && expiresAtRaw != "" {
		return nil, fmt.Errorf("--ttl and --expires-at cannot be used together")
	}
	if ttlRaw != "" {
		ttl, err := parseTTL(ttlRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid --ttl %q: %w", ttlRaw, err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("--ttl must be greater than 0")
		}
		v := time.Now().UTC().Add(ttl)
		return &v, nil
	}
	if expiresAtRaw != "" {
		v, err := time.Parse(time.RFC3339, expiresAtRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid --expires-at %q, expected RFC3339", expiresAtRaw)
		}
		v = v.UTC()
		return &v, nil
	}
	return nil, nil
}

func (a *adminCLI) tokenList(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: admin token list <username_or_id>")
	}
	identifier := strings.TrimSpace(args[0])
	user, tokens, err := a.container.UserService.ListAccessTokensForUser(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user not found: %s", identifier)
		}
		return fmt.Errorf("list tokens failed: %w", err)
	}

	fmt.Fprintf(a.out, "tokens for user=%s(%d), count=%d\n", user.Username, user.ID, len(tokens))
	fmt.Fprintln(a.out, "id\tprefix\tcreatedAt\texpiresAt\trevokedAt\tlastUsedAt\tdescription")
	for _, token := range tokens {
		fmt.Fprintf(
			a.out,
			"%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			token.ID,
			token.TokenPrefix,
			token.CreatedAt.UTC().Format(time.RFC3339),
			formatOptionalTime(token.ExpiresAt),
			formatOptionalTime(token.RevokedAt),
			formatOptionalTime(token.LastUsedAt),
			strings.TrimSpace(token.Description),
		)
	}
	return nil
}

func (a *adminCLI) tokenRevoke(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: admin token revoke <token_id>")
	}
	tokenID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil || tokenID <= 0 {
		return fmt.Errorf("invalid token_id: %s", args[0])
	}

	token, err := a.container.UserService.RevokeAccessTokenByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("token not found: %d", tokenID)
		}
		if errors.Is(err, service.ErrTokenAlreadyRevoked) {
			fmt.Fprintf(a.out, "token already revoked: id=%d revokedAt=%s\n", tokenID, formatOptionalTime(token.RevokedAt))
			return nil
		}
		return fmt.Errorf("revoke token failed: %w", err)
	}
	fmt.Fprintf(a.out, "token revoked: id=%d user_id=%d revokedAt=%s\n", token.ID, token.UserID, formatOptionalTime(token.RevokedAt))
	return nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
