package main

import (
	"errors"
	"io"

	"github.com/iwvelando/pricing-advisor/internal/orchestrator"
	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/pkg/output"
	"github.com/iwvelando/pricing-advisor/pkg/validation"
	"github.com/spf13/cobra"
)

func addRequestFlags(cmd *cobra.Command, req *pricing.Request) {
	f := cmd.Flags()
	f.StringVar(&req.SKU, "sku", "", "product SKU")
	f.StringVar(&req.CustomerID, "customer", "", "customer id")
	f.IntVarP(&req.Quantity, "quantity", "q", 1, "units quoted")
	f.StringVar(&req.Country, "country", "", "customer country code")
	f.StringVar(&req.Channel, "channel", "Direct", "sales channel")
	f.StringVar(&req.Currency, "currency", "USD", "quote currency")
}

// withPipeline validates req, builds the orchestrator and runs fn with it.
func (a *app) withPipeline(req pricing.Request, fn func(o *orchestrator.Orchestrator) error) error {
	if err := validation.ValidateRequest(req); err != nil {
		return err
	}
	o, _, closer, err := a.newOrchestrator()
	if err != nil {
		return err
	}
	defer closer()
	return fn(o)
}

func (a *app) recommendCmd() *cobra.Command {
	var req pricing.Request
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend floor, target and stretch prices for a quote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withPipeline(req, func(o *orchestrator.Orchestrator) error {
				rec, err := o.Recommend(commandContext(cmd), req)
				if err != nil {
					return err
				}
				return a.render(rec, func(w io.Writer) { output.PrettyRecommendation(w, rec) })
			})
		},
	}
	addRequestFlags(cmd, &req)
	return cmd
}

func (a *app) scoreCmd() *cobra.Command {
	var req pricing.Request
	var price float64
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Evaluate a proposed price for a quote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validation.ValidateProposedPrice(price); err != nil {
				return err
			}
			return a.withPipeline(req, func(o *orchestrator.Orchestrator) error {
				res, err := o.Score(commandContext(cmd), req, price)
				if err != nil {
					return err
				}
				return a.render(res, func(w io.Writer) { output.PrettyScore(w, price, res) })
			})
		},
	}
	addRequestFlags(cmd, &req)
	cmd.Flags().Float64Var(&price, "price", 0, "proposed unit price")
	return cmd
}

func (a *app) curveCmd() *cobra.Command {
	var req pricing.Request
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Print win probability across the policy price range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withPipeline(req, func(o *orchestrator.Orchestrator) error {
				points, err := o.Curve(commandContext(cmd), req)
				if err != nil {
					return err
				}
				return a.render(points, func(w io.Writer) { output.PrettyCurve(w, points) })
			})
		},
	}
	addRequestFlags(cmd, &req)
	return cmd
}

func (a *app) demandCurveCmd() *cobra.Command {
	var req pricing.Request
	cmd := &cobra.Command{
		Use:   "demand-curve",
		Short: "Print estimated demand and revenue across the policy price range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withPipeline(req, func(o *orchestrator.Orchestrator) error {
				points, err := o.DemandCurve(commandContext(cmd), req)
				if err != nil {
					return err
				}
				return a.render(points, func(w io.Writer) { output.PrettyDemandCurve(w, points) })
			})
		},
	}
	addRequestFlags(cmd, &req)
	return cmd
}

func (a *app) compareCmd() *cobra.Command {
	var req pricing.Request
	var from, to float64
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare win probability between two prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := errors.Join(validation.ValidateProposedPrice(from), validation.ValidateProposedPrice(to)); err != nil {
				return err
			}
			return a.withPipeline(req, func(o *orchestrator.Orchestrator) error {
				res, err := o.Compare(commandContext(cmd), req, from, to)
				if err != nil {
					return err
				}
				return a.render(res, func(w io.Writer) { output.PrettyComparison(w, res) })
			})
		},
	}
	addRequestFlags(cmd, &req)
	cmd.Flags().Float64Var(&from, "from", 0, "current price")
	cmd.Flags().Float64Var(&to, "to", 0, "alternative price")
	return cmd
}
