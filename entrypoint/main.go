package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"varspot.io/vsp/api"
	"varspot.io/vsp/logger"
	"varspot.io/vsp/pipeline"
	"varspot.io/vsp/readers"
	"varspot.io/vsp/types"
	"varspot.io/vsp/worker"
)

type Config struct {
	ConfigPath    string `envconfig:"VSP_CONFIG_PATH" required:"true"`
	DirPath       string `envconfig:"VSP_DIR_PATH" required:"true"`
	RestAPIActive bool   `envconfig:"VSP_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"VSP_REST_API_PORT" default:"10000"`
}

const pipelineStartMaxRetries = 5

func main() {
	logger.SetupLogging()
	vspLogger := logger.NewLogger("Main")
	fatalErrLogger := vspLogger.Fatal().Caller()
	inputText := flag.String("s", "", "tag a single text and print the response")
	inputPath := flag.String("d", "", "tag every .txt file under a path and print the responses")
	wrapTarget := flag.String("wrap", "", "launch the given executable with its stderr logs piped through the wrapper")
	flag.Parse()

	if *wrapTarget != "" {
		logger.WrapProcess(*wrapTarget, flag.Args()...)
		return
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}

	//Load Pipeline
	pipelineChannel := make(chan pipeline.Pipeline)
	go func() {
		for retry := 0; retry < pipelineStartMaxRetries; retry++ {
			cfgs, err := types.LoadConfigurations(config.ConfigPath)
			if err != nil {
				vspLogger.Err(err).Msg("Failed to load configurations. Retrying in 5 sec")
				time.Sleep(5 * time.Second)
				continue
			}
			vspLogger.Info().Msgf("Loaded %d configurations", len(cfgs))
			vspLogger.Info().Msg("Starting pipelines loading")

			pipelineParams := pipeline.GetDefaultMutationParams(config.DirPath, cfgs)
			ppln, err := pipeline.DefaultMutation(pipelineParams)
			if err != nil {
				vspLogger.Err(err).Msg("Failed to start mutation mention pipeline. Retrying in 5 sec")
				time.Sleep(5 * time.Second)
				continue
			}
			vspLogger.Info().Msg("Pipelines loaded")
			pipelineChannel <- ppln
			return
		}
		fatalErrLogger.Msg("Could not start pipelines after 5 retries, exiting")
		os.Exit(1)
	}()

	// block until pipeline loads
	ppln := <-pipelineChannel

	// one-shot modes: tag the given input and exit
	if *inputText != "" {
		fmt.Println(<-ppln(pipeline.Request{Tid: "stdin", Text: *inputText}))
		return
	}
	if *inputPath != "" {
		dataset, err := readers.TextFilesReader{Path: *inputPath}.Read()
		if err != nil {
			fatalErrLogger.Err(err).Str("path", *inputPath).Msg("Failed to read input files")
			os.Exit(1)
		}
		for _, doc := range dataset.Documents {
			for _, part := range doc.Parts {
				fmt.Println(<-ppln(pipeline.Request{Tid: doc.ID, Text: part.Text}))
			}
		}
		return
	}

	if config.RestAPIActive {
		go func() {
			vspLogger.Info().Msg("Starting API service")
			apiRequest := &api.Request{
				Pipeline: ppln,
			}
			http.HandleFunc("/", apiRequest.ProcessData)
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			vspLogger.Info().Msgf("REST API on %s", host)
			err := http.ListenAndServe(host, nil)
			fatalErrLogger.Err(err).Msg("REST API stopped with error")
		}()
	}

	vspLogger.Info().Msg("Start VSP Worker")
	for {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			vspLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
			os.Exit(1)
		}
		err = rmqWorker.Run()
		if err != nil {
			vspLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
}
