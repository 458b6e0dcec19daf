// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package cmd implements the bio-gbamtool subcommands, in the
// multi-command cmdline.Command style of cmd/bio-pamtool/cmd.
package cmd

import (
	"fmt"
	"log"

	"github.com/grailbio/base/cmdutil"
	"v.io/x/lib/cmdline"
)

func newCmdInfo() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "info",
		Short:    "Print a GBAM file's header and catalog as JSON",
		ArgsName: "path",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("info takes one pathname argument, but got %v", argv)
		}
		return info(argv[0])
	})
	return cmd
}

// Run is the bio-gbamtool entry point.
func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-gbamtool",
			Short:    "Tools for working with GBAM format files",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdInfo(),
			},
		})
}
