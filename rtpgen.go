package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	Version   string
	BuildTime string
	GitCommit string
	GoVersion = runtime.Version()
)

func main() {
	cmd := &cobra.Command{
		Use:     "rtpgen",
		Short:   "rtpgen",
		Long:    "rtpgen generates and inspects RTP media captures for SIPp testing",
		Version: fmt.Sprintf("\nVersion: %s\nBuilt: %s\nCommit: %s\nGoVersion: %s\n", Version, BuildTime, GitCommit, GoVersion),
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.InitDefaultVersionFlag()
	cmd.AddCommand(newConvertCommand(), newScanCommand(), newTranscodeCommand(), newTtsCommand())
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
