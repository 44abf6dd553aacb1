// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Main entrypoint for clipprep application

package main

import (
	"fmt"
	"os"

	"github.com/evolution-gaming/clipprep/internal/logging"
)

// root represents top level of clipprep command, including dispatching to subcommands.
func root(args []string) error {
	usage := `Clipprep - Clip Preprocessing toolkit

Usage:

    clipprep <command> [arguments] [-h|-help]

The commands are:

    preprocess  apply the consistent spatial transform to a clip and write NPY
    sample      temporally subsample a clip through the photometric pipeline
    inspect     create value-distribution plots of a transformed clip
    dump-conf   output actual application configuration
    version     print clipprep version and exit

Use "clipprep <command> -h|-help" for more information about command.`

	if len(args) < 1 {
		fmt.Println(usage)
		return &AppError{msg: "please, specify command", exitCode: 2}
	}

	switch args[0] {
	case "preprocess":
		return CreatePreprocessCommand().Run(args[1:])
	case "sample":
		return CreateSampleCommand().Run(args[1:])
	case "inspect":
		return CreateInspectCommand().Run(args[1:])
	case "dump-conf", "dump":
		return CreateDumpConfCommand().Run(args[1:])
	case "version":
		printVersion()
		return nil
	case "-h", "-help", "--help", "?":
		fmt.Println(usage)
		return &AppError{
			exitCode: 2,
		}
	default:
		// No commands were matched at this point, so bail out with default usage message.
		fmt.Println(usage)
		return &AppError{
			msg:      "unknown command/flag",
			exitCode: 2,
		}
	}
}

func main() {
	// Enable info logger by default and early enough.
	logging.EnableInfoLogger()

	if err := root(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		switch e := err.(type) {
		case *AppError:
			os.Exit(e.ExitCode())
		default:
			os.Exit(1)
		}
	}
	os.Exit(0)
}
