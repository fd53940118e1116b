package server

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/ugorji/go/codec"
	. "github.com/smartystreets/goconvey/convey"

	"polydawn.net/fperr/actors/foreman"
	"polydawn.net/fperr/def"
	"polydawn.net/fperr/executor/impl/engine"
	"polydawn.net/fperr/improve"
	"polydawn.net/fperr/model/cassandra/impl/mem"
	"polydawn.net/fperr/scheduler/linear"
	"polydawn.net/fperr/testutil"
)

const (
	sqrtDiff = "(FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))"
	negSqrt  = "(FPCore (x) (- (sqrt (+ x 1))))"
)

func newTestServer(c C) *httptest.Server {
	opts := improve.DefaultOptions()
	opts.Iterations = 1
	e := engine.New(opts)
	s := &linear.Scheduler{}
	s.Configure(e, 1)
	s.Start()
	man := foreman.New(foreman.Config{
		Executor:   e,
		Scheduler:  s,
		Results:    cassandra_mem.New(),
		SampleSize: 64,
		Log:        testutil.TestLogger(c),
	})
	srv := httptest.NewServer(New(man, testutil.TestLogger(c)))
	Reset(func() {
		srv.CloseClientConnections()
		srv.Close()
	})
	return srv
}

func fetch(method, url string, contentType string, body string) (*http.Response, []byte) {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	So(err, ShouldBeNil)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	msg, err := io.ReadAll(resp.Body)
	So(err, ShouldBeNil)
	return resp, msg
}

func api(srv *httptest.Server, kind string, body string) (*http.Response, []byte) {
	return fetch("POST", srv.URL+"/api/"+kind, "application/json", body)
}

func decode(msg []byte, v interface{}) {
	So(codec.NewDecoder(bytes.NewReader(msg), jsonHandle).Decode(v), ShouldBeNil)
}

type idAndPath struct {
	Job  string `json:"job"`
	Path string `json:"path"`
}

type pointsBody struct {
	idAndPath
	Points []wirePoint `json:"points"`
	Seed   uint64      `json:"seed"`
}

type errBody struct {
	Error errorDetail `json:"error"`
}

func TestAPI(t *testing.T) {
	Convey("Given a running server", t, func(c C) {
		srv := newTestServer(c)

		Convey("it should say it's up", func() {
			resp, _ := fetch("GET", srv.URL+"/up", "", "")
			So(resp.Status, ShouldEqual, "200 Up")
		})

		Convey("sampling should be reproducible by seed", func() {
			resp, msg := api(srv, "sample", `{"formula": "`+negSqrt+`", "seed": 5}`)
			So(resp.StatusCode, ShouldEqual, 200)
			So(resp.Header.Get("X-Job-Id"), ShouldNotEqual, "")
			var first pointsBody
			decode(msg, &first)
			So(first.Job, ShouldEqual, resp.Header.Get("X-Job-Id"))
			So(first.Path, ShouldContainSubstring, ".")
			So(first.Points, ShouldHaveLength, 64)
			So(first.Seed, ShouldEqual, 5)

			_, msg = api(srv, "sample", `{"formula": "`+negSqrt+`", "seed": 5}`)
			var second pointsBody
			decode(msg, &second)
			So(second.Job, ShouldEqual, first.Job)
			So(second.Points[1], ShouldResemble, first.Points[1])
		})

		Convey("analysis should score given points to a tenth of a bit", func() {
			resp, msg := api(srv, "analyze", `{"formula": "`+sqrtDiff+`", "sample": [[[14.97651307489794], 0.12711304680349078]]}`)
			So(resp.StatusCode, ShouldEqual, 200)
			var body struct {
				idAndPath
				Points [][]interface{} `json:"points"`
				Error  float64         `json:"error"`
			}
			decode(msg, &body)
			So(body.Points, ShouldHaveLength, 1)
			bits, ok := body.Points[0][1].(string)
			So(ok, ShouldBeTrue)
			So(regexp.MustCompile(`^[0-9]+\.[0-9]$`).MatchString(bits), ShouldBeTrue)
		})

		Convey("local error should come back as a tree", func() {
			_, msg := api(srv, "localerror", `{"formula": "`+sqrtDiff+`", "sample": [[[2.852044568544089e-150], 1e+308]], "seed": 5}`)
			var first struct {
				idAndPath
				Tree def.ErrorTree `json:"tree"`
			}
			decode(msg, &first)
			So(first.Tree.Expr, ShouldEqual, "(- (sqrt (+ x 1)) (sqrt x))")
			So(first.Tree.Children, ShouldHaveLength, 2)

			Convey("and different points should be different jobs", func() {
				_, msg := api(srv, "localerror", `{"formula": "`+sqrtDiff+`", "sample": [[[1.5223342548065899e-15], 1e+308]], "seed": 5}`)
				var second idAndPath
				decode(msg, &second)
				So(second.Job, ShouldNotEqual, first.Job)
			})
		})

		Convey("sampled points should post straight back", func() {
			_, msg := api(srv, "sample", `{"formula": "(FPCore (x) (- (+ x 1) x))", "seed": 3}`)
			var drawn pointsBody
			decode(msg, &drawn)
			So(drawn.Points, ShouldHaveLength, 64)
			for _, kind := range []string{"localerror", "explanations", "analyze"} {
				var body []byte
				codec.NewEncoderBytes(&body, jsonHandle).MustEncode(&apiRequest{
					Formula: "(FPCore (x) (- (+ x 1) x))",
					Sample:  drawn.Points,
				})
				resp, _ := api(srv, kind, string(body))
				So(resp.StatusCode, ShouldEqual, 200)
			}

			Convey("including big whole numbers written without a point", func() {
				resp, msg := api(srv, "analyze", `{"formula": "(FPCore (x) (- (+ x 1) x))", "sample": [[[11597123420898386000], 1], [[-11597123420898386000], 1]]}`)
				So(resp.StatusCode, ShouldEqual, 200)
				var body struct {
					Points [][]interface{} `json:"points"`
				}
				decode(msg, &body)
				So(body.Points, ShouldHaveLength, 2)
				So(body.Points[0][0], ShouldResemble, []interface{}{1.1597123420898386e19})
			})
		})

		Convey("exacts and calculate should agree where floats are exact", func() {
			for _, kind := range []string{"exacts", "calculate"} {
				_, msg := api(srv, kind, `{"formula": "`+negSqrt+`", "sample": [[[1], -1.4142135623730951]]}`)
				var body pointsBody
				decode(msg, &body)
				So(body.Points, ShouldHaveLength, 1)
				So(body.Points[0].Inputs, ShouldResemble, []float64{1})
				So(body.Points[0].Output, ShouldEqual, -1.4142135623730951)
			}
		})

		Convey("non-finite values should travel as strings", func() {
			_, msg := api(srv, "exacts", `{"formula": "(FPCore (x) (/ 1 x))", "sample": [[[0], 0]]}`)
			So(string(msg), ShouldContainSubstring, `"nan"`)
			_, msg = api(srv, "calculate", `{"formula": "(FPCore (x) (/ 1 x))", "sample": [[[0], "nan"]]}`)
			So(string(msg), ShouldContainSubstring, `"+inf"`)
		})

		Convey("cost, translate, and mathjs should need no points", func() {
			_, msg := api(srv, "cost", `{"formula": "`+negSqrt+`"}`)
			var cost struct {
				Cost float64 `json:"cost"`
			}
			decode(msg, &cost)
			So(cost.Cost, ShouldBeGreaterThan, 0)

			_, msg = api(srv, "translate", `{"formula": "`+sqrtDiff+`", "language": "c"}`)
			var translated struct {
				Result   string `json:"result"`
				Language string `json:"language"`
			}
			decode(msg, &translated)
			So(translated.Result, ShouldEqual, "double expr(double x) {\n\treturn sqrt((x + 1.0)) - sqrt(x);\n}\n")
			So(translated.Language, ShouldEqual, "c")

			_, msg = api(srv, "mathjs", `{"formula": "`+sqrtDiff+`"}`)
			var mathjs struct {
				MathJS string `json:"mathjs"`
			}
			decode(msg, &mathjs)
			So(mathjs.MathJS, ShouldEqual, "sqrt(x + 1.0) - sqrt(x)")
		})

		Convey("alternatives and explanations should never be empty-handed", func() {
			_, msg := api(srv, "alternatives", `{"formula": "`+sqrtDiff+`", "sample": [[[14.97651307489794], 0.12711304680349078]]}`)
			var alts struct {
				idAndPath
				Alternatives []string          `json:"alternatives"`
				Details      []def.Alternative `json:"details"`
			}
			decode(msg, &alts)
			So(alts.Alternatives, ShouldNotBeNil)
			So(alts.Details, ShouldHaveLength, len(alts.Alternatives))

			_, msg = api(srv, "explanations", `{"formula": "`+sqrtDiff+`", "seed": 5}`)
			var expl struct {
				Explanation []def.Explanation `json:"explanation"`
			}
			decode(msg, &expl)
			So(len(expl.Explanation), ShouldBeGreaterThan, 0)
		})

		Convey("errors should map to statuses", func() {
			for _, tc := range []struct {
				kind, body string
				status     int
				class      string
			}{
				{"analyze", `{"formula": "(FPCore (x) (+ x"}`, 400, "ParseError"},
				{"analyze", `{}`, 400, "ValidationError"},
				{"analyze", `{"formula": "` + sqrtDiff + `", "sample": [[[1, 2], 0]]}`, 400, "ValidationError"},
				{"analyze", `{"formula": `, 400, "ValidationError"},
				{"translate", `{"formula": "` + sqrtDiff + `", "language": "cobol"}`, 400, "UnsupportedTargetError"},
				{"analyze", `{"formula": "(FPCore (x) (sqrt (- (fabs x))))"}`, 422, "DomainError"},
			} {
				resp, msg := api(srv, tc.kind, tc.body)
				So(resp.StatusCode, ShouldEqual, tc.status)
				var body errBody
				decode(msg, &body)
				So(body.Error.Class, ShouldEqual, tc.class)
				So(body.Error.Msg, ShouldNotEqual, "")
			}
			resp, _ := api(srv, "bogus", `{}`)
			So(resp.StatusCode, ShouldEqual, 404)
		})

		Convey("the results listing should grow with each job", func() {
			api(srv, "cost", `{"formula": "`+negSqrt+`"}`)
			api(srv, "cost", `{"formula": "`+sqrtDiff+`"}`)
			api(srv, "cost", `{"formula": "`+negSqrt+`"}`)
			_, msg := fetch("GET", srv.URL+"/results.json", "", "")
			var results struct {
				Tests []def.Summary `json:"tests"`
			}
			decode(msg, &results)
			So(results.Tests, ShouldHaveLength, 2)
			So(results.Tests[0].Kind, ShouldEqual, def.KindCost)
		})
	})
}

func TestResultsFeed(t *testing.T) {
	Convey("Given a running server with a feed open", t, func(c C) {
		srv := newTestServer(c)
		resp, err := http.Get(srv.URL + "/results/feed")
		So(err, ShouldBeNil)
		Reset(func() { resp.Body.Close() })
		So(resp.StatusCode, ShouldEqual, 200)
		So(resp.Header.Get("Content-Type"), ShouldEqual, "application/x-ndjson")

		lines := make(chan string, 4)
		go func() {
			r := bufio.NewReader(resp.Body)
			for {
				line, err := r.ReadString('\n')
				if err != nil {
					close(lines)
					return
				}
				lines <- line
			}
		}()
		next := func() string {
			select {
			case line := <-lines:
				return line
			case <-time.After(5 * time.Second):
				return ""
			}
		}

		Convey("each finished job should arrive once, as it finishes", func() {
			api(srv, "cost", `{"formula": "`+negSqrt+`"}`)
			var first def.Summary
			decode([]byte(next()), &first)
			So(first.Kind, ShouldEqual, def.KindCost)
			So(first.Status, ShouldEqual, def.JobComplete)

			api(srv, "cost", `{"formula": "`+negSqrt+`"}`)
			api(srv, "translate", `{"formula": "`+negSqrt+`", "language": "c"}`)
			var second def.Summary
			decode([]byte(next()), &second)
			So(second.Kind, ShouldEqual, def.KindTranslate)
		})
	})
}

func TestImproveRoutes(t *testing.T) {
	Convey("Given a running server", t, func(c C) {
		srv := newTestServer(c)

		Convey("improve-start should hand back somewhere to poll", func() {
			resp, _ := fetch("POST", srv.URL+"/improve-start", "application/x-www-form-urlencoded",
				"formula="+url.QueryEscape(sqrtDiff))
			So(resp.StatusCode, ShouldBeIn, 201, 202)
			where := resp.Header.Get("Location")
			So(where, ShouldStartWith, "/check-status/")
			id := strings.TrimPrefix(where, "/check-status/")

			Convey("which should report done within a while", func() {
				var status *http.Response
				for i := 0; i < 300; i++ {
					status, _ = fetch("GET", srv.URL+where, "", "")
					if status.StatusCode != 202 {
						break
					}
					So(status.Status, ShouldEqual, "202 Job in progress")
					time.Sleep(100 * time.Millisecond)
				}
				So(status.Status, ShouldEqual, "201 Job complete")
				result := status.Header.Get("Location")
				So(result, ShouldEqual, "/"+id+".improve/result.json")

				resp, msg := fetch("GET", srv.URL+result, "", "")
				So(resp.StatusCode, ShouldEqual, 200)
				var body struct {
					idAndPath
					Alternatives []string `json:"alternatives"`
				}
				decode(msg, &body)
				So(body.Job, ShouldEqual, id)
				So(body.Alternatives, ShouldNotBeNil)

				Convey("and keep a timeline", func() {
					resp, msg := fetch("GET", srv.URL+"/timeline/"+id, "", "")
					So(resp.StatusCode, ShouldEqual, 201)
					var events []def.Event
					decode(msg, &events)
					So(len(events), ShouldBeGreaterThan, 0)
					So(events[0].Status, ShouldEqual, def.JobQueued)
				})
			})
		})

		Convey("improve should wait and redirect to the result", func() {
			resp, _ := fetch("GET", srv.URL+"/improve?formula="+url.QueryEscape(negSqrt), "", "")
			So(resp.StatusCode, ShouldEqual, 200)
			So(resp.Request.URL.Path, ShouldEndWith, ".improve/result.json")
			So(resp.Header.Get("X-Job-Id"), ShouldNotEqual, "")
		})

		Convey("unknown jobs should not be found", func() {
			resp, _ := fetch("GET", srv.URL+"/check-status/42069", "", "")
			So(resp.Status, ShouldEqual, "404 Job not found")
			resp, _ = fetch("GET", srv.URL+"/timeline/42069", "", "")
			So(resp.StatusCode, ShouldEqual, 404)
			resp, _ = fetch("GET", srv.URL+"/42069.improve/result.json", "", "")
			So(resp.StatusCode, ShouldEqual, 404)
			resp, _ = fetch("GET", srv.URL+"/42069.improve/other.json", "", "")
			So(resp.StatusCode, ShouldEqual, 404)
		})
	})
}

func TestStatusMapping(t *testing.T) {
	Convey("Unrecognized errors should be server errors", t, func() {
		So(statusFor(io.EOF), ShouldEqual, http.StatusInternalServerError)
		So(statusFor(def.ParseError.New("x")), ShouldEqual, http.StatusBadRequest)
	})
}
