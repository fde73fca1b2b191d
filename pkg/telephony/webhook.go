package telephony

import (
	"net/http"
	"sort"
	"strings"
)

// NewVoiceHandler answers the provider's voice webhook with TwiML that
// connects the call's media stream to this service. Custom parameters ride
// along in the start envelope of the stream.
func NewVoiceHandler(publicURL, mediaPath string, params map[string]string) http.HandlerFunc {
	wsURL := websocketURL(publicURL, mediaPath)
	var b strings.Builder
	b.WriteString(`<Response><Connect><Stream url="` + xmlEscape(wsURL) + `">`)
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(`<Parameter name="` + xmlEscape(k) + `" value="` + xmlEscape(params[k]) + `"/>`)
	}
	b.WriteString(`</Stream></Connect></Response>`)
	twiml := b.String()

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(twiml))
	}
}

func websocketURL(publicURL, mediaPath string) string {
	host := publicURL
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "wss://")
	host = strings.TrimSuffix(host, "/")
	if mediaPath == "" {
		mediaPath = "/media"
	}
	if !strings.HasPrefix(mediaPath, "/") {
		mediaPath = "/" + mediaPath
	}
	return "wss://" + host + mediaPath
}

func xmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}
