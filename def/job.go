package def

import (
	"fmt"
	"math"
	"time"
)

/*
	A JobID names one request.  It is a hash of everything that can
	change the request's result, so it doubles as a cache key: the same
	request submitted twice is the same job.
*/
type JobID string

type Kind string

const (
	KindSample       Kind = "sample"
	KindAnalyze      Kind = "analyze"
	KindLocalError   Kind = "localerror"
	KindAlternatives Kind = "alternatives"
	KindExplanations Kind = "explanations"
	KindExacts       Kind = "exacts"
	KindCalculate    Kind = "calculate"
	KindCost         Kind = "cost"
	KindTranslate    Kind = "translate"
	KindMathJS       Kind = "mathjs"
	KindImprove      Kind = "improve"
)

var kinds = []Kind{
	KindSample, KindAnalyze, KindLocalError, KindAlternatives, KindExplanations,
	KindExacts, KindCalculate, KindCost, KindTranslate, KindMathJS, KindImprove,
}

func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ValidationError.New("unknown request kind %q", s)
}

// Async kinds are dispatched to the scheduler rather than run inline.
func (k Kind) Async() bool { return k == KindImprove }

// UsesSample reports whether the kind computes over a sample set.
func (k Kind) UsesSample() bool {
	switch k {
	case KindCost, KindTranslate, KindMathJS:
		return false
	}
	return true
}

/*
	Request is everything a caller can ask of the engine.

	Only the fields relevant to the kind are considered part of it:
	`Normalize` zeroes the rest, so that e.g. a translate request doesn't
	become a different job because a seed happened to be attached.
*/
type Request struct {
	Kind     Kind
	Formula  *Formula
	Seed     uint64
	Size     int       // points to draw when Sample is empty
	Sample   SampleSet // explicit points; when set, Seed and Size are ignored
	Language string    // translate only
}

func (r *Request) Normalize() {
	if r.Kind == KindSample {
		r.Sample = nil
	}
	if !r.Kind.UsesSample() || len(r.Sample) > 0 {
		r.Seed = 0
		r.Size = 0
	}
	if !r.Kind.UsesSample() {
		r.Sample = nil
	}
	if r.Kind != KindTranslate {
		r.Language = ""
	}
}

// Validate checks the request is well formed; it does not evaluate anything.
func (r *Request) Validate() error {
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return err
	}
	if r.Formula == nil {
		return ValidationError.New("request has no formula")
	}
	if err := r.Sample.Check(r.Formula.Arity()); err != nil {
		return err
	}
	if r.Kind.UsesSample() && len(r.Sample) == 0 && r.Size <= 0 {
		return ValidationError.New("sample size must be positive")
	}
	if r.Kind == KindTranslate && r.Language == "" {
		return ValidationError.New("translate requires a language")
	}
	return nil
}

// identity is the hashed form of a request.  Floats go in as bit patterns
// so that -0 and 0, or two different NaNs, never collide.
type identity struct {
	Kind     string     `json:"kind"`
	Formula  string     `json:"formula"`
	Seed     uint64     `json:"seed"`
	Size     int        `json:"size"`
	Sample   [][]uint64 `json:"sample"`
	Language string     `json:"language"`
}

/*
	ID hashes the canonical formula together with every other field of
	the (normalized) request:

		h(kind||canonical(formula)||seed||size||sample||language) -> JobID
*/
func (r Request) ID() JobID {
	r.Normalize()
	ident := identity{
		Kind:     string(r.Kind),
		Formula:  r.Formula.String(),
		Seed:     r.Seed,
		Size:     r.Size,
		Language: r.Language,
	}
	ident.Sample = make([][]uint64, len(r.Sample))
	for i, p := range r.Sample {
		row := make([]uint64, 0, len(p.Inputs)+1)
		for _, x := range p.Inputs {
			row = append(row, math.Float64bits(x))
		}
		ident.Sample[i] = append(row, math.Float64bits(p.Output))
	}
	return JobID(HashOf(ident))
}

// Path is where a job's result is served: "<id>.<kind>".
func (r Request) Path() string {
	return JobPath(r.ID(), r.Kind)
}

func JobPath(id JobID, kind Kind) string {
	return fmt.Sprintf("%s.%s", id, kind)
}

type JobStatus string

const (
	JobQueued   JobStatus = "queued"
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

func (s JobStatus) Terminal() bool { return s == JobComplete || s == JobFailed }

/*
	Result is a "union" of everything a job can produce.  Exactly the
	fields for the job's kind are set.
*/
type Result struct {
	Kind Kind   `json:"kind"`
	Seed uint64 `json:"seed,omitempty"`

	// sample, exacts, calculate
	Points []Point `json:"points,omitempty"`

	// analyze
	Analysis *ErrorReport `json:"analysis,omitempty"`

	// localerror
	Tree *ErrorTree `json:"tree,omitempty"`

	// alternatives, improve
	Alternatives []Alternative `json:"alternatives,omitempty"`
	Original     *Alternative  `json:"original,omitempty"`

	// explanations
	Explanations []Explanation `json:"explanations,omitempty"`

	// cost
	Cost float64 `json:"cost,omitempty"`

	// translate, mathjs
	Language string `json:"language,omitempty"`
	Source   string `json:"source,omitempty"`
}

/*
	JobRecord is a snapshot of a job: the foreman hands these out, never
	the live job.
*/
type JobRecord struct {
	ID       JobID     `json:"id"`
	Kind     Kind      `json:"kind"`
	Status   JobStatus `json:"status"`
	Path     string    `json:"path"`
	Formula  string    `json:"formula"`
	Result   *Result   `json:"result,omitempty"`
	Failure  string    `json:"failure,omitempty"`
	Created  time.Time `json:"created"`
	Started  time.Time `json:"started,omitempty"`
	Finished time.Time `json:"finished,omitempty"`
}

/*
	Summary is the line a finished job contributes to the results index.
*/
type Summary struct {
	Job      JobID     `json:"job"`
	Kind     Kind      `json:"kind"`
	Path     string    `json:"path"`
	Status   JobStatus `json:"status"`
	Formula  string    `json:"formula"`
	Name     string    `json:"name,omitempty"`
	Failure  string    `json:"failure,omitempty"`
	Finished time.Time `json:"finished"`
	Elapsed  float64   `json:"elapsed"` // milliseconds
}

/*
	A "union" type of the things that can show up on a job's timeline.
*/
type Event struct {
	Seq int `json:"seq"`

	// Log events are the engine's logs, captured as the job runs.
	Log *LogItem `json:"log,omitempty"`

	// Status events mark each state transition.
	Status JobStatus `json:"status,omitempty"`
}

/*
	Type translating log15 records for serialization in `Event`s.
*/
type LogItem struct {
	Time  time.Time         `json:"t"`
	Level string            `json:"lvl"`
	Msg   string            `json:"msg"`
	Ctx   map[string]string `json:"ctx,omitempty"`
}
