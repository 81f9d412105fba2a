package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/internal/refdata"
	"github.com/iwvelando/pricing-advisor/pkg/output"
	"github.com/iwvelando/pricing-advisor/pkg/validation"
	"github.com/spf13/cobra"
)

func (a *app) batchCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Recommend prices for many quotes from a JSON or CSV file",
		Long: "Reads quote requests from --input (a JSON array or a CSV file with a\n" +
			"sku,customer_id,quantity,country,channel,currency header; \"-\" reads\n" +
			"JSON from stdin) and prices them concurrently.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reqs, err := readBatchRequests(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			if err := validation.ValidateBatchSize(len(reqs), a.conf.Batch.MaxRequests); err != nil {
				return err
			}

			o, _, closer, err := a.newOrchestrator()
			if err != nil {
				return err
			}
			defer closer()

			res := o.Batch(commandContext(cmd), reqs)
			return a.render(res, func(w io.Writer) { output.PrettyBatch(w, res) })
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "request file (.json or .csv), - for stdin")
	return cmd
}

func readBatchRequests(stdin io.Reader, path string) ([]pricing.Request, error) {
	if path == "-" {
		return decodeJSONRequests(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch input: %w", err)
	}
	defer func() { _ = f.Close() }()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return decodeCSVRequests(f)
	}
	return decodeJSONRequests(f)
}

func decodeJSONRequests(r io.Reader) ([]pricing.Request, error) {
	var reqs []pricing.Request
	if err := json.NewDecoder(r).Decode(&reqs); err != nil {
		return nil, fmt.Errorf("failed to decode batch requests: %w", err)
	}
	return reqs, nil
}

func decodeCSVRequests(r io.Reader) ([]pricing.Request, error) {
	var reqs []pricing.Request
	_, err := refdata.ReadRows(r, []string{"sku", "customer_id", "quantity"}, func(row refdata.Row) error {
		quantity, err := strconv.Atoi(row.Str("quantity"))
		if err != nil {
			return fmt.Errorf("invalid quantity %q", row.Str("quantity"))
		}
		reqs = append(reqs, pricing.Request{
			SKU:        row.Str("sku"),
			CustomerID: row.Str("customer_id"),
			Quantity:   quantity,
			Country:    row.Str("country"),
			Channel:    row.Str("channel"),
			Currency:   row.Str("currency"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read batch requests: %w", err)
	}
	return reqs, nil
}
