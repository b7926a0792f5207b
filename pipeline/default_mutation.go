package pipeline

import (
	"encoding/json"
	"path"

	"github.com/rs/zerolog"

	"varspot.io/vsp/logger"
	"varspot.io/vsp/ml"
	"varspot.io/vsp/readers"
	"varspot.io/vsp/types"
)

type Pipeline func(request Request) <-chan string

type DefaultMutationParams struct {
	ResourceFolder string                `json:"resource_folder"`
	Configurations []types.Configuration `json:"configurations"`
}

func GetDefaultMutationParams(filePath string, cfgs []types.Configuration) DefaultMutationParams {
	return DefaultMutationParams{
		ResourceFolder: path.Join(filePath, "resources"),
		Configurations: cfgs,
	}
}

func DefaultMutation(params DefaultMutationParams) (Pipeline, error) {
	vspLogger := logger.NewLogger("Mutation mention pipeline")
	errLogger := vspLogger.With().Caller().Logger()
	vspLogger.Info().
		Interface("params", params).
		Msg("Starting mutation mention pipeline (see parameters in 'params' field)")

	preparer := NewPreparer()

	taggers := make(map[string]*MentionTagger, len(params.Configurations))
	for _, cfg := range params.Configurations {
		modelPath := cfg.ModelFile
		if !path.IsAbs(modelPath) {
			modelPath = path.Join(params.ResourceFolder, modelPath)
		}
		model, err := ml.LoadCRFFromFile(modelPath)
		if err != nil {
			errLogger.Err(err).
				Str("config_name", cfg.Name).
				Str("model_file", modelPath).
				Msg("Failed to load CRF model")
			return nil, err
		}
		taggers[cfg.Name] = NewMentionTagger(model, cfg.ClassID)
	}

	buildResult := NewMutationResult()

	return func(request Request) <-chan string {
		responseChan := make(chan string)
		pplnLog := vspLogger.With().Str("tid", request.Tid).Logger()
		pplnLog.Info().Msg("Started mutation mention pipeline")
		reqErrLogger := pplnLog.With().Caller().Logger()

		go func() {
			resultChannel := make(chan Result)
			defer close(resultChannel)

			for _, cfg := range params.Configurations {
				in := make(chan docItem, 1)

				prepared := preparer.Stage(in)
				tagged := taggers[cfg.Name].Stage(prepared)
				results := buildResult(tagged, cfg.Name, request)
				connect(results, resultChannel)

				reader := readers.StringReader{DocID: request.Tid, Text: request.Text}
				in <- docItem{dataset: reader.Read()}
				close(in)
			}

			response := make(map[string]interface{})
			for i := 0; i < len(params.Configurations); i++ {
				res := <-resultChannel
				pplnLog.Info().
					Str("config_name", res.ConfigName).
					Msg("Finished pipeline for configuration")
				response[res.ConfigName] = res.Data
			}

			pplnLog.Info().Msg("Finished mutation mention pipeline")
			responseChan <- encodeResponse(response, &reqErrLogger)
		}()

		return responseChan
	}, nil
}

// encodeResponse serializes the per-configuration results. A marshal failure
// still yields a valid JSON payload carrying the error instead of an empty
// string.
func encodeResponse(response map[string]interface{}, errLogger *zerolog.Logger) string {
	buf, err := json.Marshal(response)
	if err != nil {
		errLogger.Err(err).Msg("Failed to marshal response")
		buf, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return string(buf)
}

func connect(from <-chan Result, to chan<- Result) {
	go func() {
		for v := range from {
			to <- v
		}
	}()
}
