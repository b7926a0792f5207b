package api

import (
	"io/ioutil"
	"net/http"

	"github.com/rs/zerolog"
	"varspot.io/vsp/logger"
	"varspot.io/vsp/pipeline"
)

var apiLogger = logger.NewLogger("API")

// Request serves the debugging endpoint: POST a raw abstract, get the tagged
// mentions back. The optional tid query parameter labels the request in the
// logs and in the response's doc_id.
type Request struct {
	Pipeline pipeline.Pipeline
}

func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	tid := r.URL.Query().Get("tid")
	if tid == "" {
		tid = "api_request"
	}
	reqLogger := requestLogger(r, tid)

	if r.Method != http.MethodPost {
		reqLogger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	msg, err := ioutil.ReadAll(r.Body)
	if err != nil {
		reqLogger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	reqLogger.Info().Msg("Starting pipeline for request from API")
	resp := <-req.Pipeline(pipeline.Request{
		Tid:  tid,
		Text: string(msg),
	})
	_, _ = w.Write([]byte(resp))
	reqLogger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}

func requestLogger(r *http.Request, tid string) zerolog.Logger {
	return apiLogger.With().
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Str("tid", tid).Logger()
}
