package main

import (
	"fmt"
	"os"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cli := NewCLI()
	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "history":
		NewHistoryCommands(cli).Handle(args)
	case "federation":
		NewFederationCommands(cli).Handle(args)
	case "backup":
		NewBackupCommands(cli).Handle(args)
	case "version":
		fmt.Printf("fedbridgectl version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("fedbridgectl - fedbridge CLI Tool")
	fmt.Println()
	fmt.Println("Usage: fedbridgectl <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  history <subcommand>     Transaction history operations")
	fmt.Println("    list [--kind <kind>]   List operations")
	fmt.Println("    get <operation-id>     Show one operation")
	fmt.Println()
	fmt.Println("  federation <subcommand>  Federation operations")
	fmt.Println("    list                   List known federations")
	fmt.Println("    get <federation-id>    Show federation details")
	fmt.Println("    gateways               Show cached gateway registry")
	fmt.Println("    select-gateway         Run gateway selection")
	fmt.Println()
	fmt.Println("  backup <subcommand>      Backup operations")
	fmt.Println("    create                 Create a backup")
	fmt.Println("    restore <file>         Restore from a backup")
	fmt.Println("    list                   List available backups")
	fmt.Println()
	fmt.Println("  version                  Show version")
	fmt.Println("  help                     Show this help")
	fmt.Println()
	fmt.Println("Global Options:")
	fmt.Println("  --server <url>           fedbridge server URL (default: http://localhost:8999)")
}
