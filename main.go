package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	ini "gopkg.in/ini.v1"

	"github.com/netresearch/watchdogd/cli"
)

var (
	version string
	build   string
)

// configFilePath is where an operator may optionally drop scalar overrides
// (currently just log-level) picked up before flags/env are parsed.
const configFilePath = "/etc/watchdogd/config.ini"

func preParseLogLevel(args []string) string {
	var pre struct {
		LogLevel string `long:"log-level"`
	}
	preParser := flags.NewParser(&pre, flags.IgnoreUnknown)
	_, _ = preParser.ParseArgs(args)
	if pre.LogLevel != "" {
		return pre.LogLevel
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true, InsensitiveKeys: true}, configFilePath)
	if err != nil {
		return ""
	}
	sec, err := cfg.GetSection("global")
	if err != nil {
		return ""
	}
	return sec.Key("log-level").String()
}

func main() {
	args := os.Args[1:]

	var cmd cli.DaemonCommand
	if cmd.LogLevel = preParseLogLevel(args); cmd.LogLevel != "" {
		_ = os.Setenv("LOG_LEVEL", cmd.LogLevel)
	}

	parser := flags.NewNamedParser("watchdogd", flags.Default)
	parser.LongDescription = "watchdogd independently detects missed deadlines and stage failures in scheduled multi-stage jobs."
	if _, err := parser.AddGroup("daemon", "daemon options", &cmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			return
		}

		var flagErr *flags.Error
		if errors.As(err, &flagErr) {
			parser.WriteHelp(os.Stdout)
			_, _ = fmt.Fprintf(os.Stdout, "\nBuild information\n  commit: %s\n  date: %s\n", version, build)
		}
		os.Exit(1)
	}

	if err := cmd.Execute(nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
