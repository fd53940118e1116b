package server

import (
	"bufio"
	"fmt"
	"net/http"
	"strings"
)

/*
	Write a response whose status line carries `reason` instead of the
	standard phrase for `code`.  net/http offers no way to do that, so
	the connection is hijacked and the response written by hand; the
	connection is closed afterwards.

	Where hijacking isn't possible (HTTP/2, test recorders) the standard
	phrase is used and the reason goes in the `X-Reason` header instead.
*/
func writeReason(w http.ResponseWriter, code int, reason string, body []byte) {
	reason = strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, reason)
	w.Header().Set("X-Reason", reason)
	if sr, ok := w.(*statusRecorder); ok {
		sr.status = code
	}

	hj, ok := w.(http.Hijacker)
	if !ok {
		w.WriteHeader(code)
		w.Write(body)
		return
	}
	conn, buf, err := hj.Hijack()
	if err != nil {
		w.WriteHeader(code)
		w.Write(body)
		return
	}
	defer conn.Close()

	h := w.Header().Clone()
	h.Set("Content-Length", fmt.Sprint(len(body)))
	h.Set("Connection", "close")
	if h.Get("Content-Type") == "" && len(body) > 0 {
		h.Set("Content-Type", "text/plain; charset=utf-8")
	}
	writeStatusLine(buf.Writer, code, reason)
	h.Write(buf)
	buf.WriteString("\r\n")
	buf.Write(body)
	buf.Flush()
}

func writeStatusLine(w *bufio.Writer, code int, reason string) {
	fmt.Fprintf(w, "HTTP/1.1 %03d %s\r\n", code, reason)
}
