package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tokenward/tokenward-go/internal/cli/output"
	"github.com/tokenward/tokenward-go/internal/server/httpserver/handler"
)

const requestTimeout = 30 * time.Second

// TokenCommand returns the token subcommand group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:    "token",
		Aliases: []string{"t"},
		Usage:   "Manage API tokens",
		Subcommands: []*cli.Command{
			{
				Name:      "mint",
				Usage:     "Mint a new token for an owner",
				ArgsUsage: "OWNER_KIND OWNER_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Token name",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:    "ability",
						Aliases: []string{"a"},
						Usage:   "Granted ability, repeatable (default: wildcard)",
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Token lifetime (e.g. 720h), zero means no expiry",
					},
				},
				Action: tokenMint,
			},
			{
				Name:   "list",
				Usage:  "List the calling owner's tokens",
				Action: tokenList,
			},
			{
				Name:      "get",
				Usage:     "Show one token",
				ArgsUsage: "TOKEN_ID",
				Action:    tokenGet,
			},
			{
				Name:      "revoke",
				Usage:     "Revoke one token",
				ArgsUsage: "TOKEN_ID",
				Action:    tokenRevoke,
			},
			{
				Name:  "revoke-all",
				Usage: "Revoke every token of the calling owner",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "keep",
						Usage: "Token ID to spare, repeatable",
					},
				},
				Action: tokenRevokeAll,
			},
			{
				Name:      "check-ability",
				Usage:     "Check whether the credential grants an ability",
				ArgsUsage: "ABILITY",
				Action:    tokenCheckAbility,
			},
			{
				Name:      "abilities",
				Usage:     "Add or remove one ability on a token",
				ArgsUsage: "TOKEN_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "add",
						Usage: "Ability to add",
					},
					&cli.StringFlag{
						Name:  "remove",
						Usage: "Ability to remove",
					},
				},
				Action: tokenAbilities,
			},
		},
	}
}

func tokenMint(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected OWNER_KIND OWNER_ID arguments")
	}

	api, err := apiClient(c)
	if err != nil {
		return err
	}

	req := handler.MintTokenRequest{
		Name:      c.String("name"),
		Abilities: c.StringSlice("ability"),
	}
	if ttl := c.Duration("ttl"); ttl > 0 {
		seconds := int64(ttl / time.Second)
		req.TTLSeconds = &seconds
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	minted, err := api.Mint(ctx, c.Args().Get(0), c.Args().Get(1), req)
	if err != nil {
		return err
	}

	if !tableOutput(c) {
		return formatter(c).Format(c.App.Writer, minted)
	}

	fmt.Fprintf(c.App.Writer, "Token minted: %s\n", minted.Token.ID)
	fmt.Fprintf(c.App.Writer, "Credential:   %s\n", minted.Credential)
	fmt.Fprintln(c.App.Writer, "Store the credential now: the secret cannot be recovered later.")
	return nil
}

func tokenList(c *cli.Context) error {
	api, err := apiClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	list, err := api.List(ctx)
	if err != nil {
		return err
	}

	if !tableOutput(c) {
		return formatter(c).Format(c.App.Writer, list)
	}

	table := &output.Table{
		Headers: []string{"ID", "NAME", "ABILITIES", "LAST USED", "EXPIRES"},
	}
	for _, item := range list.Items {
		table.AddRow(
			item.ID,
			item.Name,
			fmt.Sprintf("%v", item.Abilities),
			output.FormatTime(item.LastUsedAt),
			output.FormatTime(item.ExpiresAt),
		)
	}
	return table.Render(c.App.Writer)
}

func tokenGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected TOKEN_ID argument")
	}

	api, err := apiClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	token, err := api.Get(ctx, c.Args().First())
	if err != nil {
		return err
	}

	return formatter(c).Format(c.App.Writer, token)
}

func tokenRevoke(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected TOKEN_ID argument")
	}

	api, err := apiClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := api.Revoke(ctx, c.Args().First()); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Token %s revoked\n", c.Args().First())
	return nil
}

func tokenRevokeAll(c *cli.Context) error {
	api, err := apiClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	revoked, err := api.RevokeAll(ctx, c.StringSlice("keep"))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Revoked %d tokens\n", revoked)
	return nil
}

func tokenCheckAbility(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected ABILITY argument")
	}

	api, err := apiClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	ability := c.Args().First()
	allowed, err := api.CheckAbility(ctx, ability)
	if err != nil {
		return err
	}

	if allowed {
		fmt.Fprintf(c.App.Writer, "allowed: %s\n", ability)
		return nil
	}
	return fmt.Errorf("denied: %s", ability)
}

func tokenAbilities(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected TOKEN_ID argument")
	}
	add, remove := c.String("add"), c.String("remove")
	if add == "" && remove == "" {
		return fmt.Errorf("nothing to change: pass --add or --remove")
	}

	api, err := apiClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	result, err := api.MutateAbilities(ctx, c.Args().First(), add, remove)
	if err != nil {
		return err
	}

	if !tableOutput(c) {
		return formatter(c).Format(c.App.Writer, result)
	}

	fmt.Fprintf(c.App.Writer, "Abilities: %v\n", result.Abilities)
	if !result.Changed {
		fmt.Fprintln(c.App.Writer, "No change")
	}
	return nil
}
