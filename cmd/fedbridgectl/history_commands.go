package main

import (
	"flag"
)

// HistoryCommands handles transaction history related commands
type HistoryCommands struct {
	cli *CLI
}

// NewHistoryCommands creates a new history commands handler
func NewHistoryCommands(cli *CLI) *HistoryCommands {
	return &HistoryCommands{cli: cli}
}

// Handle routes history subcommands
func (h *HistoryCommands) Handle(args []string) {
	if len(args) == 0 {
		h.cli.Errorln("History subcommand required")
		h.cli.Errorln("Usage: fedbridgectl history <list|get> [options]")
		h.cli.Exit(1)
		return
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "list":
		h.List(subArgs)
	case "get":
		h.Get(subArgs)
	default:
		h.cli.Errorf("Unknown history subcommand: %s\n", subcommand)
		h.cli.Errorln("Available: list, get")
		h.cli.Exit(1)
	}
}

// List prints the transaction history
func (h *HistoryCommands) List(args []string) {
	var kind string
	flagSet := flag.NewFlagSet("list", flag.ContinueOnError)
	flagSet.SetOutput(h.cli.Error)
	flagSet.StringVar(&kind, "kind", "", "Filter by operation kind")
	var serverURL string
	flagSet.StringVar(&serverURL, "server", "http://localhost:8999", "fedbridge server URL")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			h.cli.Println("Usage: fedbridgectl history list [--kind <kind>] [options]")
			return
		}
		h.cli.HandleError(err, "parsing flags")
	}
	h.cli.ValidateMaxArgs(flagSet.Args(), 0, "Usage: fedbridgectl history list [--kind <kind>]")

	client := NewBridgeClient(serverURL)

	history, err := client.GetHistory(kind)
	h.cli.HandleError(err, "fetching history")

	if history.Count == 0 {
		h.cli.Println("No operations found")
		return
	}

	h.cli.Printf("%-24s %-18s %-8s %12s %s\n", "OPERATION", "KIND", "STATUS", "AMOUNT", "TXID")
	for _, rec := range history.History {
		h.cli.Printf("%-24s %-18s %-8s %12d %s\n",
			rec.OperationID, rec.Kind, rec.Status, rec.AmountMsat, rec.Txid)
	}
}

// Get prints a single operation record
func (h *HistoryCommands) Get(args []string) {
	config, remaining, err := h.cli.ParseGlobalFlags(args, "get")
	if err == flag.ErrHelp {
		h.cli.Println("Usage: fedbridgectl history get <operation-id> [options]")
		return
	}
	h.cli.HandleError(err, "parsing flags")
	h.cli.ValidateExactArgs(remaining, 1, "Usage: fedbridgectl history get <operation-id>")

	client := h.cli.CreateClient(config)

	rec, err := client.GetOperation(remaining[0])
	h.cli.HandleError(err, "fetching operation")

	h.cli.Printf("Operation:  %s\n", rec.OperationID)
	h.cli.Printf("Kind:       %s\n", rec.Kind)
	h.cli.Printf("Status:     %s\n", rec.Status)
	if rec.AmountMsat > 0 {
		h.cli.Printf("Amount:     %d msat\n", rec.AmountMsat)
	}
	if rec.FeeMsat > 0 {
		h.cli.Printf("Fee:        %d msat\n", rec.FeeMsat)
	}
	if rec.Txid != "" {
		h.cli.Printf("Txid:       %s\n", rec.Txid)
	}
	if rec.Preimage != "" {
		h.cli.Printf("Preimage:   %s\n", rec.Preimage)
	}
	h.cli.Printf("Created:    %s\n", rec.CreatedAt)
	h.cli.Printf("Updated:    %s\n", rec.UpdatedAt)
}
