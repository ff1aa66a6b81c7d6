// Package cmd implements the orderedview command line tool: a small demo
// harness for opening an ordered view against a configured kv backend,
// inserting keys into it, and printing each group's order. Structured the way the
// teacher's cmd package wires cobra, pflag, and logrus together.
package cmd

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:               "orderedview",
		Short:             "An ordered materialized view engine",
		Long:              "orderedview maintains per-group ordered row sequences over a pluggable key-value backend.",
		PersistentPreRunE: rootPreRun,
		PersistentPostRun: rootPostRun,
	}

	logFile   = ""
	logLevel  = "info"
	logStderr = true
	logWriter io.WriteCloser
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableLevelTruncation: true,
	})

	fs := rootCmd.PersistentFlags()
	fs.StringVar(&logFile, "log-file", logFile, "`file` to use for logging, in addition to stderr")
	fs.StringVar(&logLevel, "log-level", logLevel,
		"log level: trace, debug, info, warn, error, fatal, or panic")
	fs.BoolVarP(&logStderr, "log-stderr", "s", logStderr, "log to standard error")
}

// Execute runs the command tree; it is the sole entry point called by
// main.go.
func Execute() error {
	return rootCmd.Execute()
}

func rootPreRun(cmd *cobra.Command, args []string) error {
	if logFile != "" {
		var err error
		logWriter, err = os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			logWriter = nil
			return fmt.Errorf("orderedview: %s", err)
		}
		if logStderr {
			log.SetOutput(io.MultiWriter(os.Stderr, logWriter))
		} else {
			log.SetOutput(logWriter)
		}
	}

	ll, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("orderedview: %s", err)
	}
	log.SetLevel(ll)

	log.WithField("pid", os.Getpid()).Info("orderedview starting")
	return nil
}

func rootPostRun(cmd *cobra.Command, args []string) {
	log.WithField("pid", os.Getpid()).Info("orderedview done")

	if logWriter != nil {
		logWriter.Close()
	}
}
