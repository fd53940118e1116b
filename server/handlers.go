package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/ugorji/go/codec"

	"polydawn.net/fperr/def"
)

// Kinds served under /api.  Improve has its own routes.
var apiKinds = map[string]def.Kind{
	"sample":       def.KindSample,
	"analyze":      def.KindAnalyze,
	"localerror":   def.KindLocalError,
	"alternatives": def.KindAlternatives,
	"explanations": def.KindExplanations,
	"exacts":       def.KindExacts,
	"calculate":    def.KindCalculate,
	"cost":         def.KindCost,
	"translate":    def.KindTranslate,
	"mathjs":       def.KindMathJS,
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	kind, ok := apiKinds[r.PathValue("kind")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	var body apiRequest
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := s.request(kind, body.Formula)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Sample = fromWire(body.Sample)
	req.Size = body.Size
	req.Seed = s.man.Seed(body.Seed)
	req.Language = body.Language

	rec, err := s.man.Submit(r.Context(), req)
	if rec.ID != "" {
		w.Header().Set("X-Job-Id", string(rec.ID))
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload(rec))
}

// Submits an improve job, waits for it, and sends the caller to its result.
func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request) {
	req, err := s.request(def.KindImprove, r.URL.Query().Get("formula"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.man.Dispatch(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Job-Id", string(rec.ID))
	rec, err = s.man.Wait(r.Context(), rec.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, resultPath(rec), http.StatusFound)
}

func (s *Server) handleImproveStart(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := s.request(def.KindImprove, r.PostFormValue("formula"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.man.Dispatch(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Job-Id", string(rec.ID))
	w.Header().Set("Location", "/check-status/"+url.PathEscape(string(rec.ID)))
	if rec.Status.Terminal() {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusAccepted)
	}
}

func (s *Server) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := s.man.Status(def.JobID(r.PathValue("id")))
	if err != nil {
		writeReason(w, http.StatusNotFound, "Job not found", nil)
		return
	}
	w.Header().Set("X-Job-Id", string(rec.ID))
	switch rec.Status {
	case def.JobComplete:
		w.Header().Set("Location", resultPath(rec))
		writeReason(w, http.StatusCreated, "Job complete", nil)
	case def.JobFailed:
		writeReason(w, http.StatusInternalServerError, rec.Failure, []byte(rec.Failure))
	default:
		writeReason(w, http.StatusAccepted, "Job in progress", nil)
	}
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	events, err := s.man.Timeline(def.JobID(r.PathValue("id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, events)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	list, err := s.man.Results().ListResults(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []def.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tests": list})
}

/*
	Streams each summary as the index accepts it, one JSON document per
	line, until the client goes away or the server shuts down.  Nothing
	already in the index is replayed; fetch `/results.json` for that.
*/
func (s *Server) handleResultsFeed(w http.ResponseWriter, r *http.Request) {
	ch := make(chan def.Summary, feedBuffer)
	stop := s.man.Results().ObserveResults(ch)
	defer stop()

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	if flusher != nil {
		flusher.Flush()
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		case sum := <-ch:
			var line []byte
			codec.NewEncoderBytes(&line, jsonHandle).MustEncode(sum)
			if _, err := w.Write(append(line, '\n')); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// Summaries a slow feed reader can fall behind by before it misses some.
const feedBuffer = 64

func (s *Server) handleUp(w http.ResponseWriter, r *http.Request) {
	writeReason(w, http.StatusOK, "Up", nil)
}

// Serves `/<id>.<kind>/result.json`.
func (s *Server) handleJobFile(w http.ResponseWriter, r *http.Request) {
	dir, file := r.PathValue("job"), r.PathValue("file")
	dot := strings.LastIndexByte(dir, '.')
	if file != "result.json" || dot < 0 {
		http.NotFound(w, r)
		return
	}
	rec, err := s.man.Status(def.JobID(dir[:dot]))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if string(rec.Kind) != dir[dot+1:] {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("X-Job-Id", string(rec.ID))
	switch rec.Status {
	case def.JobComplete:
		writeJSON(w, http.StatusOK, payload(rec))
	case def.JobFailed:
		writeReason(w, http.StatusInternalServerError, rec.Failure, []byte(rec.Failure))
	default:
		writeReason(w, http.StatusAccepted, "Job in progress", nil)
	}
}

func (s *Server) request(kind def.Kind, text string) (def.Request, error) {
	if strings.TrimSpace(text) == "" {
		return def.Request{}, def.ValidationError.New("no formula given")
	}
	f, err := def.Parse(text)
	if err != nil {
		return def.Request{}, err
	}
	req := def.Request{Kind: kind, Formula: f}
	if kind == def.KindImprove {
		req.Seed = s.man.Seed(nil)
	}
	return req, nil
}

func resultPath(rec def.JobRecord) string {
	return "/" + url.PathEscape(rec.Path) + "/result.json"
}
