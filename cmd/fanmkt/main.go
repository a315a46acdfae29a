package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "github.com/ADRiordan41/nfl-fantasy-market/internal/cli"
	"github.com/ADRiordan41/nfl-fantasy-market/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "fanmkt",
		Short:        "Fantasy athlete exchange client",
		SilenceUsage: true,
	}

	root.AddCommand(
		newRegisterCmd(&apiBase),
		newLoginCmd(&apiBase),
		newLogoutCmd(&apiBase),
		newPlayersCmd(&apiBase),
		newQuoteCmd(&apiBase),
		newTradeCmd(&apiBase),
		newPortfolioCmd(&apiBase),
		newTxCmd(&apiBase),
		newAdminCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func reqCtx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newRegisterCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an exchange account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := promptRequired("Username")
			if err != nil {
				return err
			}
			password, err := promptRequired("Password")
			if err != nil {
				return err
			}
			ctx, cancel := reqCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Register(ctx, username, password)
			if err != nil {
				return err
			}
			if err := saveSessionFrom(out); err != nil {
				return err
			}
			printSuccess("Account created. Session saved.")
			return nil
		},
	}
}

func newLoginCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to the exchange",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := promptRequired("Username")
			if err != nil {
				return err
			}
			password, err := promptRequired("Password")
			if err != nil {
				return err
			}
			ctx, cancel := reqCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Login(ctx, username, password)
			if err != nil {
				return err
			}
			if err := saveSessionFrom(out); err != nil {
				return err
			}
			printSuccess("Login successful.")
			return nil
		},
	}
}

func newLogoutCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and clear the local token",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err == nil {
				ctx, cancel := reqCtx(cmd)
				defer cancel()
				if err := newClient(apiBase).Logout(ctx, session.Token); err != nil {
					printWarn("server logout failed: " + err.Error())
				}
			}
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Logged out.")
			return nil
		},
	}
}

func newPlayersCmd(apiBase *string) *cobra.Command {
	players := &cobra.Command{
		Use:   "players",
		Short: "Browse the tradable roster",
	}

	var sport string
	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List players and spot prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := reqCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).ListPlayers(ctx, session.Token, sport, all)
			if err != nil {
				return err
			}
			return renderPlayersList(out)
		},
	}
	list.Flags().StringVar(&sport, "sport", "", "filter by sport")
	list.Flags().BoolVar(&all, "all", false, "include unlisted players (admin)")

	show := &cobra.Command{
		Use:   "show <player-id>",
		Short: "Show a player with price history and weekly scoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid player id %q", args[0])
			}
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := reqCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).PlayerDetail(ctx, session.Token, playerID)
			if err != nil {
				return err
			}
			return renderPlayerDetail(out)
		},
	}

	players.AddCommand(list, show)
	return players
}

func newQuoteCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <side> <player-id> <shares>",
		Short: "Preview a trade without executing it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			side := strings.ToLower(args[0])
			playerID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid player id %q", args[1])
			}
			shares, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid share count %q", args[2])
			}
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := reqCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Quote(ctx, session.Token, playerID, side, shares)
			if err != nil {
				return err
			}
			return renderQuote(out, side)
		},
	}
}

func newTradeCmd(apiBase *string) *cobra.Command {
	var expectedTotal int64
	trade := &cobra.Command{
		Use:   "trade <side> <player-id> <shares>",
		Short: "Execute a buy, sell, short, or cover",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			side := strings.ToLower(args[0])
			playerID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid player id %q", args[1])
			}
			shares, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid share count %q", args[2])
			}
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := reqCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Trade(ctx, session.Token, playerID, side, shares, expectedTotal, uuid.NewString())
			if err != nil {
				return err
			}
			return renderTradeResult(out, side)
		},
	}
	trade.Flags().Int64Var(&expectedTotal, "expected-total", 0, "quoted total in cents; flags the fill when the price moved")
	return trade
}

func newPortfolioCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Show cash, holdings, exposure, and margin",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := reqCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Portfolio(ctx, session.Token)
			if err != nil {
				return err
			}
			return renderPortfolio(out)
		},
	}
}

func newTxCmd(apiBase *string) *cobra.Command {
	var limit int
	tx := &cobra.Command{
		Use:   "tx",
		Short: "Show the transaction journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := reqCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).Transactions(ctx, session.Token, limit)
			if err != nil {
				return err
			}
			return renderTransactions(out)
		},
	}
	tx.Flags().IntVar(&limit, "limit", 25, "max rows")
	return tx
}

func newAdminCmd(apiBase *string) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Exchange administration",
	}

	var sport, team, position string
	var basePrice, fundamental int64
	var k float64
	launch := &cobra.Command{
		Use:   "launch <name>",
		Short: "List a new player on the exchange",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := reqCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).LaunchPlayer(ctx, session.Token, map[string]any{
				"sport":             sport,
				"name":              args[0],
				"team":              team,
				"position":          position,
				"base_price":        basePrice,
				"fundamental_price": fundamental,
				"k":                 k,
			}, uuid.NewString())
			if err != nil {
				return err
			}
			return renderSimpleOK(out, "Player launched.")
		},
	}
	launch.Flags().StringVar(&sport, "sport", "nfl", "sport code")
	launch.Flags().StringVar(&team, "team", "", "team code")
	launch.Flags().StringVar(&position, "position", "", "position")
	launch.Flags().Int64Var(&basePrice, "base-price", 0, "IPO base price in cents")
	launch.Flags().Int64Var(&fundamental, "fundamental", 0, "fundamental price in cents (defaults to base)")
	launch.Flags().Float64Var(&k, "k", 0.0025, "per-share curve slope")
	_ = launch.MarkFlagRequired("base-price")

	var listed bool
	listing := &cobra.Command{
		Use:   "listing <player-id>",
		Short: "Hide or re-list a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid player id %q", args[0])
			}
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := reqCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).SetListing(ctx, session.Token, playerID, listed)
			if err != nil {
				return err
			}
			return renderSimpleOK(out, "Listing updated.")
		},
	}
	listing.Flags().BoolVar(&listed, "listed", true, "listed state")

	stats := &cobra.Command{
		Use:   "stats <player-id> <week> <points>",
		Short: "Record a weekly stat line",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid player id %q", args[0])
			}
			week, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid week %q", args[1])
			}
			points, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid points %q", args[2])
			}
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := reqCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).RecordStats(ctx, session.Token, []map[string]any{
				{"player_id": playerID, "week": week, "points": points},
			})
			if err != nil {
				return err
			}
			return renderSimpleOK(out, "Stat line recorded.")
		},
	}

	settle := &cobra.Command{
		Use:   "settle <week>",
		Short: "Pay the week's dividends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid week %q", args[0])
			}
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := reqCtx(cmd)
			defer cancel()
			out, err := newClient(apiBase).SettleWeek(ctx, session.Token, week)
			if err != nil {
				return err
			}
			return renderDividendReport(out)
		},
	}

	closeCmd := &cobra.Command{
		Use:   "close <season>",
		Short: "Close the season: halt trading and settle all holdings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			out, err := newClient(apiBase).CloseSeason(ctx, session.Token, args[0])
			if err != nil {
				return err
			}
			return renderCloseReport(out)
		},
	}

	reset := &cobra.Command{
		Use:   "reset <season>",
		Short: "Reset the closed season to opening state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			out, err := newClient(apiBase).ResetSeason(ctx, session.Token, args[0])
			if err != nil {
				return err
			}
			return renderResetReport(out)
		},
	}

	admin.AddCommand(launch, listing, stats, settle, closeCmd, reset)
	return admin
}

func saveSessionFrom(raw map[string]any) error {
	token, _ := raw["token"].(string)
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("no token in response")
	}
	var username string
	var isAdmin bool
	if acct, ok := raw["account"].(map[string]any); ok {
		username, _ = acct["username"].(string)
		isAdmin, _ = acct["is_admin"].(bool)
	}
	return cl.SaveSession(cl.Session{Token: token, Username: username, IsAdmin: isAdmin})
}
