package main

import (
	"flag"
)

// BackupCommands handles all backup and restore related commands
type BackupCommands struct {
	cli *CLI
}

// NewBackupCommands creates a new backup commands handler
func NewBackupCommands(cli *CLI) *BackupCommands {
	return &BackupCommands{cli: cli}
}

// Handle routes backup subcommands
func (b *BackupCommands) Handle(args []string) {
	if len(args) == 0 {
		b.cli.Errorln("Backup subcommand required")
		b.cli.Errorln("Usage: fedbridgectl backup <create|restore|list> [options]")
		b.cli.Exit(1)
		return
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "create":
		b.Create(subArgs)
	case "restore":
		b.Restore(subArgs)
	case "list":
		b.List(subArgs)
	default:
		b.cli.Errorf("Unknown backup subcommand: %s\n", subcommand)
		b.cli.Errorln("Available: create, restore, list")
		b.cli.Exit(1)
	}
}

// Create creates a new backup
func (b *BackupCommands) Create(args []string) {
	config, remaining, err := b.cli.ParseGlobalFlags(args, "create")
	if err == flag.ErrHelp {
		b.cli.Println("Usage: fedbridgectl backup create [options]")
		return
	}
	b.cli.HandleError(err, "parsing flags")
	b.cli.ValidateExactArgs(remaining, 0, "Usage: fedbridgectl backup create")

	client := b.cli.CreateClient(config)

	result, err := client.CreateBackup()
	b.cli.HandleError(err, "creating backup")

	b.cli.Printf("Successfully created backup: %s\n", result.BackupPath)
}

// Restore restores from a backup file
func (b *BackupCommands) Restore(args []string) {
	config, remaining, err := b.cli.ParseGlobalFlags(args, "restore")
	if err == flag.ErrHelp {
		b.cli.Println("Usage: fedbridgectl backup restore <backup-file> [options]")
		return
	}
	b.cli.HandleError(err, "parsing flags")
	b.cli.ValidateExactArgs(remaining, 1, "Usage: fedbridgectl backup restore <backup-file>")

	backupFile := remaining[0]
	client := b.cli.CreateClient(config)

	err = client.RestoreBackup(backupFile)
	b.cli.HandleError(err, "restoring backup")

	b.cli.Printf("Successfully restored from backup: %s\n", backupFile)
}

// List lists all available backups
func (b *BackupCommands) List(args []string) {
	config, remaining, err := b.cli.ParseGlobalFlags(args, "list")
	if err == flag.ErrHelp {
		b.cli.Println("Usage: fedbridgectl backup list [options]")
		return
	}
	b.cli.HandleError(err, "parsing flags")
	b.cli.ValidateExactArgs(remaining, 0, "Usage: fedbridgectl backup list")

	client := b.cli.CreateClient(config)

	backups, err := client.ListBackups()
	b.cli.HandleError(err, "listing backups")

	if backups.Count == 0 {
		b.cli.Println("No backups found")
		return
	}

	for _, path := range backups.Backups {
		b.cli.Println(path)
	}
}
