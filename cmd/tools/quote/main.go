package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/noah-isme/storecart/internal/catalog"
	"github.com/noah-isme/storecart/internal/pricing"
)

// orderFlags collects repeated -order sku=qty arguments.
type orderFlags []string

func (o *orderFlags) String() string { return strings.Join(*o, ",") }

func (o *orderFlags) Set(v string) error {
	*o = append(*o, v)
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	var orders orderFlags
	catalogFile := flag.String("catalog", os.Getenv("CATALOG_FILE"), "JSON catalog seed file")
	member := flag.Bool("member", false, "price with membership bulk discounts")
	asJSON := flag.Bool("json", false, "print the quote as JSON")
	flag.Var(&orders, "order", "sku=quantity, repeatable; later entries replace earlier ones")
	flag.Parse()

	if *catalogFile == "" {
		log.Fatal("catalog file is required (-catalog or CATALOG_FILE)")
	}
	if err := run(os.Stdout, *catalogFile, orders, *member, *asJSON); err != nil {
		log.Fatalf("quote: %v", err)
	}
}

func run(out io.Writer, catalogFile string, orders []string, member, asJSON bool) error {
	entries, err := catalog.LoadFile(catalogFile)
	if err != nil {
		return err
	}
	items := catalog.NewService(catalog.ServiceConfig{})
	if err := items.Seed(entries); err != nil {
		return err
	}

	cart := pricing.NewCart()
	cart.SetMembership(member)
	for _, raw := range orders {
		sku, qty, err := parseOrder(raw)
		if err != nil {
			return err
		}
		item, err := items.Lookup(sku)
		if err != nil {
			return err
		}
		order, err := pricing.NewOrder(item, qty)
		if err != nil {
			return fmt.Errorf("order %q: %w", raw, err)
		}
		if err := cart.Add(order); err != nil {
			return fmt.Errorf("order %q: %w", raw, err)
		}
	}

	quote := cart.Quote()
	if asJSON {
		return writeJSON(out, quote)
	}
	return writeTable(out, quote)
}

func parseOrder(raw string) (string, int, error) {
	sku, qtyText, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(sku) == "" {
		return "", 0, fmt.Errorf("order %q: expected sku=quantity", raw)
	}
	qty, err := strconv.Atoi(strings.TrimSpace(qtyText))
	if err != nil {
		return "", 0, fmt.Errorf("order %q: %w", raw, errors.Join(pricing.ErrInvalidArgument, err))
	}
	return strings.TrimSpace(sku), qty, nil
}

func writeTable(out io.Writer, q pricing.Quote) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tQTY\tBULK SETS\tREGULAR\tCHARGED")
	for _, line := range q.Lines {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", line.Name, line.Quantity, line.BulkSets,
			pricing.FormatMoney(line.Regular), pricing.FormatMoney(line.Charged))
	}
	fmt.Fprintf(tw, "\t\t\tSubtotal\t%s\n", pricing.FormatMoney(q.Subtotal))
	fmt.Fprintf(tw, "\t\t\tSavings\t%s\n", pricing.FormatMoney(q.Savings))
	fmt.Fprintf(tw, "\t\t\tTotal\t%s\n", pricing.FormatMoney(q.Total))
	return tw.Flush()
}

func writeJSON(out io.Writer, q pricing.Quote) error {
	type line struct {
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
		BulkSets int    `json:"bulkSets"`
		Charged  string `json:"charged"`
	}
	body := struct {
		Membership bool   `json:"membership"`
		Lines      []line `json:"lines"`
		Subtotal   string `json:"subtotal"`
		Savings    string `json:"savings"`
		Total      string `json:"total"`
	}{
		Membership: q.Membership,
		Lines:      make([]line, 0, len(q.Lines)),
		Subtotal:   pricing.FormatAmount(q.Subtotal),
		Savings:    pricing.FormatAmount(q.Savings),
		Total:      pricing.FormatAmount(q.Total),
	}
	for _, l := range q.Lines {
		body.Lines = append(body.Lines, line{
			Name:     l.Name,
			Quantity: l.Quantity,
			BulkSets: l.BulkSets,
			Charged:  pricing.FormatAmount(l.Charged),
		})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}
