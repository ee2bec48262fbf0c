package main

import (
	"flag"
)

// FederationCommands handles federation and gateway related commands
type FederationCommands struct {
	cli *CLI
}

// NewFederationCommands creates a new federation commands handler
func NewFederationCommands(cli *CLI) *FederationCommands {
	return &FederationCommands{cli: cli}
}

// Handle routes federation subcommands
func (f *FederationCommands) Handle(args []string) {
	if len(args) == 0 {
		f.cli.Errorln("Federation subcommand required")
		f.cli.Errorln("Usage: fedbridgectl federation <list|get|gateways|select-gateway> [options]")
		f.cli.Exit(1)
		return
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "list":
		f.List(subArgs)
	case "get":
		f.Get(subArgs)
	case "gateways":
		f.Gateways(subArgs)
	case "select-gateway":
		f.SelectGateway(subArgs)
	default:
		f.cli.Errorf("Unknown federation subcommand: %s\n", subcommand)
		f.cli.Errorln("Available: list, get, gateways, select-gateway")
		f.cli.Exit(1)
	}
}

// List prints all known federations
func (f *FederationCommands) List(args []string) {
	config, remaining, err := f.cli.ParseGlobalFlags(args, "list")
	if err == flag.ErrHelp {
		f.cli.Println("Usage: fedbridgectl federation list [options]")
		return
	}
	f.cli.HandleError(err, "parsing flags")
	f.cli.ValidateExactArgs(remaining, 0, "Usage: fedbridgectl federation list")

	client := f.cli.CreateClient(config)

	federations, err := client.ListFederations()
	f.cli.HandleError(err, "listing federations")

	if federations.Count == 0 {
		f.cli.Println("No federations found")
		return
	}

	for _, fed := range federations.Federations {
		marker := " "
		if fed.Connected {
			marker = "*"
		}
		f.cli.Printf("%s %s\n", marker, fed.FederationID)
	}
}

// Get prints details of one federation
func (f *FederationCommands) Get(args []string) {
	config, remaining, err := f.cli.ParseGlobalFlags(args, "get")
	if err == flag.ErrHelp {
		f.cli.Println("Usage: fedbridgectl federation get <federation-id> [options]")
		return
	}
	f.cli.HandleError(err, "parsing flags")
	f.cli.ValidateExactArgs(remaining, 1, "Usage: fedbridgectl federation get <federation-id>")

	client := f.cli.CreateClient(config)

	fed, err := client.GetFederation(remaining[0])
	f.cli.HandleError(err, "fetching federation")

	f.cli.Printf("Federation: %s\n", fed.FederationID)
	f.cli.Printf("Connected:  %t\n", fed.Connected)
	if fed.Connected {
		f.cli.Printf("Network:    %s\n", fed.Network)
		f.cli.Printf("Balance:    %d msat\n", fed.BalanceMsat)
		f.cli.Printf("Snapshot:   %d keys\n", fed.SnapshotKeys)
	}
}

// Gateways prints the cached gateway registry
func (f *FederationCommands) Gateways(args []string) {
	config, remaining, err := f.cli.ParseGlobalFlags(args, "gateways")
	if err == flag.ErrHelp {
		f.cli.Println("Usage: fedbridgectl federation gateways [options]")
		return
	}
	f.cli.HandleError(err, "parsing flags")
	f.cli.ValidateExactArgs(remaining, 0, "Usage: fedbridgectl federation gateways")

	client := f.cli.CreateClient(config)

	gateways, err := client.ListGateways()
	f.cli.HandleError(err, "listing gateways")

	if gateways.Count == 0 {
		f.cli.Println("No gateways cached")
		return
	}

	f.cli.Printf("%-40s %-7s %-9s %-12s %s\n", "GATEWAY", "VETTED", "BASE_MSAT", "PPM", "PRIVATE")
	for _, gw := range gateways.Gateways {
		f.cli.Printf("%-40s %-7t %-9d %-12d %t\n",
			gw.GatewayID, gw.Vetted, gw.Fees.BaseMsat,
			gw.Fees.ProportionalMillionths, gw.SupportsPrivatePayments)
	}
	if !gateways.Fresh {
		f.cli.Println("(cache is stale)")
	}
}

// SelectGateway runs gateway selection on the server
func (f *FederationCommands) SelectGateway(args []string) {
	config, remaining, err := f.cli.ParseGlobalFlags(args, "select-gateway")
	if err == flag.ErrHelp {
		f.cli.Println("Usage: fedbridgectl federation select-gateway [options]")
		return
	}
	f.cli.HandleError(err, "parsing flags")
	f.cli.ValidateExactArgs(remaining, 0, "Usage: fedbridgectl federation select-gateway")

	client := f.cli.CreateClient(config)

	gw, err := client.SelectGateway()
	f.cli.HandleError(err, "selecting gateway")

	f.cli.Printf("Selected gateway: %s\n", gw.GatewayID)
	f.cli.Printf("Base fee:         %d msat\n", gw.Fees.BaseMsat)
	f.cli.Printf("Proportional:     %d ppm\n", gw.Fees.ProportionalMillionths)
}
