package main

import (
	"flag"
	"fmt"
	"os"
)

type AppFlags struct {
	ConfigFile   string
	Mode         string
	TargetsFile  string
	URL          string
	ReferenceURL string
	CurrentURL   string
}

func ParseFlags() AppFlags {
	configFile := flag.String("config", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	configFileAlias := flag.String("c", "", "Alias for -config")

	modeFlag := flag.String("mode", "", "Mode to run: watch, check, clone, or visualdiff")
	modeFlagAlias := flag.String("m", "", "Alias for -mode")

	targetsFile := flag.String("targets", "", "Path to a YAML file of monitor targets (watch and check modes)")
	targetsFileAlias := flag.String("t", "", "Alias for -targets")

	urlFlag := flag.String("url", "", "URL to clone (clone mode)")
	refFlag := flag.String("ref", "", "Reference URL (visualdiff mode)")
	curFlag := flag.String("cur", "", "Current URL (visualdiff mode)")

	flag.Parse()

	flags := AppFlags{
		URL:          *urlFlag,
		ReferenceURL: *refFlag,
		CurrentURL:   *curFlag,
	}

	if *configFile != "" {
		flags.ConfigFile = *configFile
	} else if *configFileAlias != "" {
		flags.ConfigFile = *configFileAlias
	}

	if *modeFlag != "" {
		flags.Mode = *modeFlag
	} else if *modeFlagAlias != "" {
		flags.Mode = *modeFlagAlias
	}

	if *targetsFile != "" {
		flags.TargetsFile = *targetsFile
	} else if *targetsFileAlias != "" {
		flags.TargetsFile = *targetsFileAlias
	}

	if flags.Mode == "" {
		fmt.Fprintln(os.Stderr, "[FATAL] -mode argument is required (watch, check, clone, or visualdiff)")
		os.Exit(1)
	}

	return flags
}
