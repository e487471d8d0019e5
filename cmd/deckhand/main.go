// Package main provides the main entrypoint for Deckhand.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	log "go.arcalot.io/log/v2"
	"gopkg.in/yaml.v3"

	"github.com/deckhand-ci/deckhand"
	"github.com/deckhand-ci/deckhand/config"
	"github.com/deckhand-ci/deckhand/internal/gitref"
	"github.com/deckhand-ci/deckhand/loadfile"
)

// These variables are filled using ldflags during the build process with Goreleaser.
// See https://goreleaser.com/cookbooks/using-main.version/
var (
	version = "development"
	commit  = "unknown"
	date    = "unknown"
)

// ExitCodeOK signals that the program terminated normally.
const ExitCodeOK = 0

// ExitCodeInvalidData signals that the program encountered an invalid pipeline or configuration.
const ExitCodeInvalidData = 1

// ExitCodeNotTriggered signals that the pipeline loaded successfully but the push reference did not
// match its trigger, so no stages ran.
const ExitCodeNotTriggered = 2

// ExitCodePipelineFailed indicates that a pipeline stage failed.
const ExitCodePipelineFailed = 3

// RequiredFileKeyPipeline is the key for the pipeline file in the hash map of files required for execution.
const RequiredFileKeyPipeline = "pipeline"

// RequiredFileKeyConfig is the key for the config file in the hash map of files required for execution.
const RequiredFileKeyConfig = "config"

//nolint:funlen
func main() {
	tempLogger := log.New(log.Config{
		Level:       log.LevelInfo,
		Destination: log.DestinationStdout,
		Stdout:      os.Stderr,
	})

	configFile := ""
	dir := "."
	pipelineFile := "pipeline.yaml"
	refName := os.Getenv("DECKHAND_REF")
	sha := os.Getenv("DECKHAND_SHA")
	printVersion := false

	flag.BoolVar(&printVersion, "version", printVersion, "Print Deckhand version and exit.")
	flag.StringVar(
		&configFile,
		"config",
		configFile,
		"The Deckhand configuration file to load, if any.",
	)
	flag.StringVar(
		&dir,
		"context",
		dir,
		"The workspace directory to run in. Defaults to the current directory.",
	)
	flag.StringVar(
		&pipelineFile,
		"pipeline",
		pipelineFile,
		"The pipeline file in the workspace directory to load. Defaults to pipeline.yaml.",
	)
	flag.StringVar(
		&refName,
		"ref",
		refName,
		"The push reference to run the pipeline for, e.g. refs/heads/main. Defaults to the DECKHAND_REF environment variable.",
	)
	flag.StringVar(
		&sha,
		"sha",
		sha,
		"The pushed commit SHA. Defaults to the DECKHAND_SHA environment variable.",
	)
	flag.Usage = func() {
		_, _ = os.Stderr.Write([]byte(`Usage: deckhand [OPTIONS]

Deckhand will read the workspace directory and use it as a context for
executing the deployment pipeline.

Options:

  -version            Print the Deckhand version and exit.

  -config FILENAME    The Deckhand configuration file to load, if any.

  -context DIRECTORY  The workspace directory to run in. Defaults to the
                      current directory.

  -pipeline FILENAME  The pipeline file in the workspace directory to load.
                      Defaults to pipeline.yaml.

  -ref REFERENCE      The push reference to run the pipeline for, e.g.
                      refs/heads/main. Defaults to the DECKHAND_REF
                      environment variable.

  -sha COMMIT         The pushed commit SHA. Defaults to the DECKHAND_SHA
                      environment variable.
`))
	}
	flag.Parse()

	if printVersion {
		fmt.Printf(
			"Deckhand\n"+
				"========\n"+
				"Version: %s\n"+
				"Commit: %s\n"+
				"Date: %s\n",
			version, commit, date,
		)
		return
	}

	if refName == "" {
		tempLogger.Errorf("No push reference provided, pass -ref or set DECKHAND_REF.")
		flag.Usage()
		os.Exit(ExitCodeInvalidData)
	}

	requiredFiles := map[string]string{
		RequiredFileKeyPipeline: pipelineFile,
	}
	if configFile != "" {
		requiredFiles[RequiredFileKeyConfig] = configFile
	}

	fileCtx, err := loadfile.NewFileCacheUsingContext(dir, requiredFiles)
	if err != nil {
		flag.Usage()
		tempLogger.Errorf("context path resolution failed %s (%v)", dir, err)
		os.Exit(ExitCodeInvalidData)
	}
	if err := fileCtx.LoadContext(); err != nil {
		tempLogger.Errorf("Failed to load required files into context (%v)", err)
		flag.Usage()
		os.Exit(ExitCodeInvalidData)
	}

	var configData any = map[any]any{}
	if configFile != "" {
		if err := yaml.Unmarshal(fileCtx.ContentByKey(RequiredFileKeyConfig), &configData); err != nil {
			tempLogger.Errorf("Failed to load configuration file %s (%v)", configFile, err)
			flag.Usage()
			os.Exit(ExitCodeInvalidData)
		}
	}
	cfg, err := config.Load(configData)
	if err != nil {
		tempLogger.Errorf("Failed to load configuration file %s (%v)", configFile, err)
		flag.Usage()
		os.Exit(ExitCodeInvalidData)
	}

	// now we are ready to instantiate our main logger
	cfg.Log.Stdout = os.Stderr
	logger := log.New(cfg.Log).WithLabel("source", "main")

	os.Exit(runPipeline(cfg, fileCtx, logger, gitref.Ref{Name: refName, SHA: sha}))
}

func runPipeline(cfg *config.Config, fileCtx loadfile.FileCache, logger log.Logger, ref gitref.Ref) int {
	ctx, cancel := context.WithCancel(context.Background())
	ctrlC := make(chan os.Signal, 4) // We expect up to three ctrl-C inputs. Plus one extra to buffer in case.
	signal.Notify(ctrlC, os.Interrupt)

	go handleOSInterrupt(ctrlC, cancel, logger)
	defer func() {
		close(ctrlC) // Ensure that the goroutine exits
		cancel()
	}()

	stageRegistry, err := deckhand.NewDefaultStageRegistry(ctx, logger, cfg)
	if err != nil {
		logger.Errorf("Failed to initialize stage registry (%v)", err)
		return ExitCodeInvalidData
	}
	engine, err := deckhand.New(cfg, stageRegistry)
	if err != nil {
		logger.Errorf("Failed to initialize engine (%v)", err)
		return ExitCodeInvalidData
	}

	result, err := engine.RunPipeline(ctx, fileCtx.Contents(), RequiredFileKeyPipeline, fileCtx.RootDir(), ref)
	if result != nil {
		data, marshalErr := yaml.Marshal(result)
		if marshalErr != nil {
			logger.Errorf("Failed to marshal run report (%v)", marshalErr)
			return ExitCodeInvalidData
		}
		_, _ = os.Stdout.Write(data)
	}
	if err != nil {
		logger.Errorf("Pipeline execution failed (%v)", err)
		return ExitCodePipelineFailed
	}
	if !result.Triggered {
		return ExitCodeNotTriggered
	}
	return ExitCodeOK
}

func handleOSInterrupt(ctrlC chan os.Signal, cancel context.CancelFunc, logger log.Logger) {
	_, ok := <-ctrlC
	if !ok {
		return
	}
	logger.Infof("Requesting graceful shutdown.")
	cancel()

	_, ok = <-ctrlC
	if !ok {
		return
	}
	logger.Warningf("Hit CTRL-C again to forcefully exit the pipeline without cleanup. Partially deployed services may remain.")

	_, ok = <-ctrlC
	if !ok {
		return
	}
	logger.Warningf("Force exiting. Partially deployed services may remain.")
	os.Exit(1)
}
