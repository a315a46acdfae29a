package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/engine"
	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

type playersPayload struct {
	Players []engine.PlayerView `json:"players"`
}

type transactionsPayload struct {
	Transactions []engine.TransactionView `json:"transactions"`
}

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func renderPlayersList(raw map[string]any) error {
	payload, err := decodeInto[playersPayload](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== PLAYERS ==")
	if len(payload.Players) == 0 {
		printInfo("No players found.")
		return nil
	}
	fmt.Printf("%-6s %-22s %-5s %-4s %12s %12s %12s %-8s\n", "ID", "NAME", "TEAM", "POS", "SPOT", "FUNDAMENTAL", "FLOAT", "LISTED")
	for _, p := range payload.Players {
		listed := "yes"
		if !p.Listed {
			listed = "no"
		}
		fmt.Printf("%-6d %-22s %-5s %-4s %12s %12s %12s %-8s\n",
			p.ID,
			truncate(p.Name, 22),
			strings.ToUpper(p.Team),
			strings.ToUpper(p.Position),
			formatCents(int64(p.SpotPrice)),
			formatCents(int64(p.FundamentalPrice)),
			comma(p.TotalShares),
			listed,
		)
	}
	fmt.Println()
	return nil
}

func renderPlayerDetail(raw map[string]any) error {
	detail, err := decodeInto[engine.PlayerDetail](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== %s (#%d) ==\n", detail.Name, detail.ID)
	fmt.Printf("Team/Pos:     %s %s\n", strings.ToUpper(detail.Team), strings.ToUpper(detail.Position))
	fmt.Printf("Spot Price:   %s\n", formatCents(int64(detail.SpotPrice)))
	fmt.Printf("Fundamental:  %s\n", formatCents(int64(detail.FundamentalPrice)))
	fmt.Printf("Base Price:   %s\n", formatCents(int64(detail.BasePrice)))
	fmt.Printf("Shares Out:   %s\n", comma(detail.TotalShares))
	fmt.Printf("Listed:       %t\n", detail.Listed)

	if len(detail.Series) > 1 {
		latest := int64(detail.Series[0].SpotPrice)
		oldest := int64(detail.Series[len(detail.Series)-1].SpotPrice)
		fmt.Printf("Trend:        %s\n", colorizeCents(latest-oldest))
	}

	if len(detail.Series) > 0 {
		fmt.Println()
		accent.Println("Recent Ticks")
		fmt.Printf("%-20s %12s\n", "TIME", "SPOT")
		limit := len(detail.Series)
		if limit > 8 {
			limit = 8
		}
		for i := 0; i < limit; i++ {
			point := detail.Series[i]
			fmt.Printf("%-20s %12s\n", point.TickAt.Local().Format("2006-01-02 15:04"), formatCents(int64(point.SpotPrice)))
		}
	}

	if len(detail.Stats) > 0 {
		fmt.Println()
		accent.Println("Weekly Scoring")
		fmt.Printf("%-6s %10s\n", "WEEK", "POINTS")
		for _, s := range detail.Stats {
			fmt.Printf("%-6d %10.2f\n", s.Week, s.Points)
		}
	}
	fmt.Println()
	return nil
}

func renderQuote(raw map[string]any, side string) error {
	q, err := decodeInto[market.Quote](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== QUOTE %s ==\n", strings.ToUpper(side))
	fmt.Printf("Player:      #%d\n", q.PlayerID)
	fmt.Printf("Shares:      %s\n", comma(q.Shares))
	fmt.Printf("Spot Before: %s\n", formatCents(int64(q.SpotPriceBefore)))
	fmt.Printf("Spot After:  %s\n", formatCents(int64(q.SpotPriceAfter)))
	fmt.Printf("Avg Price:   %s\n", formatCents(int64(q.AveragePrice)))
	fmt.Printf("Total:       %s\n", formatCents(int64(q.Total)))
	printInfo(fmt.Sprintf("Pass --expected-total %d to the trade command to detect repricing.", q.Total))
	fmt.Println()
	return nil
}

func renderTradeResult(raw map[string]any, side string) error {
	out, err := decodeInto[engine.TradeResult](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== TRADE %s ==\n", strings.ToUpper(side))
	fmt.Printf("Transaction: #%d\n", out.TransactionID)
	fmt.Printf("Shares:      %s\n", comma(out.Quote.Shares))
	fmt.Printf("Avg Price:   %s\n", formatCents(int64(out.Quote.AveragePrice)))
	fmt.Printf("Total:       %s\n", formatCents(int64(out.Quote.Total)))
	fmt.Printf("Spot After:  %s\n", formatCents(int64(out.Quote.SpotPriceAfter)))
	fmt.Printf("Cash:        %s\n", formatCents(int64(out.CashAfter)))
	fmt.Printf("Holding:     %s shares\n", comma(out.HoldingAfter))
	if out.Repriced {
		printWarn(fmt.Sprintf("Repriced: quoted total was %s, filled at %s.",
			formatCents(int64(out.ExpectedTotal)), formatCents(int64(out.Quote.Total))))
	}
	fmt.Println()
	return nil
}

func renderPortfolio(raw map[string]any) error {
	p, err := decodeInto[market.Portfolio](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== PORTFOLIO ==")
	fmt.Printf("Cash:            %s\n", formatCents(int64(p.CashBalance)))
	fmt.Printf("Equity:          %s\n", colorizeCents(int64(p.Equity)))
	fmt.Printf("Net Exposure:    %s\n", colorizeCents(int64(p.NetExposure)))
	fmt.Printf("Gross Exposure:  %s\n", formatCents(int64(p.GrossExposure)))
	fmt.Printf("Margin Used:     %s\n", formatCents(int64(p.MarginUsed)))
	fmt.Printf("Buying Power:    %s\n", formatCents(int64(p.AvailableBuyingPower)))
	if p.MarginCall {
		printWarn("MARGIN CALL: equity is below maintenance requirements.")
	}

	fmt.Println()
	accent.Println("Holdings")
	if len(p.Holdings) == 0 {
		printInfo("No open positions.")
	} else {
		fmt.Printf("%-6s %-22s %10s %12s %14s %12s\n", "ID", "PLAYER", "SHARES", "SPOT", "VALUE", "MAINT")
		for _, h := range p.Holdings {
			fmt.Printf("%-6d %-22s %10s %12s %14s %12s\n",
				h.PlayerID,
				truncate(h.PlayerName, 22),
				comma(h.SharesOwned),
				formatCents(int64(h.SpotPrice)),
				colorizeCents(int64(h.MarketValue)),
				formatCents(int64(h.MaintenanceMarginRequired)),
			)
		}
	}
	fmt.Println()
	return nil
}

func renderTransactions(raw map[string]any) error {
	payload, err := decodeInto[transactionsPayload](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== TRANSACTIONS ==")
	if len(payload.Transactions) == 0 {
		printInfo("No transactions yet.")
		return nil
	}
	fmt.Printf("%-8s %-12s %-22s %10s %12s %14s %14s %-16s\n", "ID", "KIND", "PLAYER", "SHARES", "PRICE", "TOTAL", "CASH AFTER", "TIME")
	for _, t := range payload.Transactions {
		fmt.Printf("%-8d %-12s %-22s %10s %12s %14s %14s %-16s\n",
			t.ID,
			t.Kind,
			truncate(t.PlayerName, 22),
			comma(t.Shares),
			formatCents(int64(t.Price)),
			colorizeCents(int64(t.Total)),
			formatCents(int64(t.CashAfter)),
			t.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	fmt.Println()
	return nil
}

func renderDividendReport(raw map[string]any) error {
	out, err := decodeInto[engine.DividendReport](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== WEEK %d SETTLED ==\n", out.Week)
	fmt.Printf("Holdings Priced: %d\n", out.HoldingsPriced)
	fmt.Printf("Accounts Paid:   %d\n", out.AccountsPaid)
	fmt.Printf("Total Paid:      %s\n", formatCents(int64(out.TotalPaid)))
	fmt.Printf("Total Clawed:    %s\n", formatCents(int64(out.TotalClawed)))
	fmt.Println()
	return nil
}

func renderCloseReport(raw map[string]any) error {
	out, err := decodeInto[engine.CloseReport](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== SEASON %s CLOSED ==\n", out.Season)
	fmt.Printf("Closed At:       %s\n", out.ClosedAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("Holdings Swept:  %d\n", out.HoldingsSwept)
	fmt.Printf("Cash Paid Out:   %s\n", colorizeCents(int64(out.CashPaidOut)))
	if out.HoldingsFailed > 0 {
		printWarn(fmt.Sprintf("%d holdings failed to settle; re-run close to sweep them.", out.HoldingsFailed))
	}
	fmt.Println()
	return nil
}

func renderResetReport(raw map[string]any) error {
	out, err := decodeInto[engine.ResetReport](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== SEASON %s RESET ==\n", out.Season)
	fmt.Printf("Accounts Reset:    %d\n", out.AccountsReset)
	fmt.Printf("Holdings Archived: %d\n", out.HoldingsArchived)
	fmt.Printf("Stats Archived:    %d\n", out.StatsArchived)
	fmt.Printf("Starting Cash:     %s\n", formatCents(int64(out.StartingCash)))
	fmt.Println()
	return nil
}

func renderSimpleOK(raw map[string]any, successMessage string) error {
	if id, ok := raw["id"]; ok {
		if n, isNum := id.(float64); isNum {
			printSuccess(fmt.Sprintf("%s (#%d)", successMessage, int64(n)))
			return nil
		}
	}
	printSuccess(successMessage)
	return nil
}

func decodeInto[T any](in any) (T, error) {
	var out T
	raw, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func colorizeCents(v int64) string {
	text := formatCents(v)
	if v > 0 {
		text = "+" + text
	}
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func formatCents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%s.%02d", sign, comma(v/100), v%100)
}

func comma(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return sign + b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
