package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
)

const errorPageFormat = `<html>
<head><title>%d %s</title></head>
<body>
<center><h1>%d %s</h1></center>
<hr><center>statikd</center>
</body>
</html>`

func errorPage(status int) string {
	reason := http.StatusText(status)
	return fmt.Sprintf(errorPageFormat, status, reason, status, reason)
}

func writeErrorPage(w http.ResponseWriter, status int) {
	body := errorPage(status)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
