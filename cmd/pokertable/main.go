package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/lox/pokertable/internal/game"
)

// version is set by ldflags during build
var version = "dev"

// Exit codes
const (
	exitFailure  = 1
	exitRejected = 2 // The table refused the operation
)

// Globals are flags shared by every command
type Globals struct {
	Config   string `short:"c" default:"pokertable.hcl" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Backend  string `help:"Ledger backend: memory, file or redis (overrides config)"`
	Path     string `help:"Directory for the file backend (overrides config)"`
	NoColor  bool   `help:"Disable coloured output"`
	Quiet    bool   `short:"q" help:"Do not print the hand history"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Init     InitCmd          `cmd:"" help:"Create a table"`
	Join     JoinCmd          `cmd:"" help:"Sit a player at a table"`
	Leave    LeaveCmd         `cmd:"" help:"Remove a player from a table"`
	Start    StartCmd         `cmd:"" help:"Start the next hand"`
	Blind    BlindCmd         `cmd:"" help:"Post a player's blind"`
	Act      ActCmd           `cmd:"" help:"Fold, check, call or raise"`
	Advance  AdvanceCmd       `cmd:"" help:"Move to the next street"`
	Autowin  AutowinCmd       `cmd:"" help:"Award the pot if one player remains"`
	End      EndCmd           `cmd:"" help:"Award the pot to the winner of a showdown"`
	Show     ShowCmd          `cmd:"" help:"Show a table, or list tables"`
	Simulate SimulateCmd      `cmd:"" help:"Play random hands on many tables and check chip conservation"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokertable"),
		kong.Description("Hold'em table rules engine and ledger"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	a, err := newApp(&cli.Globals, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		ctx.Exit(exitFailure)
	}

	err = ctx.Run(a)
	a.Close()
	if err != nil {
		a.logger.Error("Command failed", "command", ctx.Command(), "error", err)
		if game.IsRuleViolation(err) {
			ctx.Exit(exitRejected)
		}
		ctx.Exit(exitFailure)
	}
}
