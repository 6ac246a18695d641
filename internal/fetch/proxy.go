package fetch

import (
	"net/url"
	"strings"
)

// builtinProxies lists the CORS-proxy candidates a browser host falls back
// to, per spec §4.2 step 2(c). bootforge itself runs server-side (no CORS
// concerns), so these only come into play when a host embedding bootforge in
// a browser-like runtime sets at least one of Options.SameOriginProxy,
// Options.ProxyOverride or Options.ExtraProxies — see SPEC_FULL.md "Open
// Question decisions" #1.
var builtinProxies = []string{
	"https://corsproxy.io/?{url}",
	"https://api.allorigins.win/raw?url={url}",
}

// resolveProxyCandidates builds the ordered, de-duplicated proxy chain:
// same-origin proxy (if configured), a caller override, the extra proxies,
// then the built-ins. With no proxy configured the chain is empty.
func resolveProxyCandidates(sameOrigin, override string, extra []string) []string {
	var ordered []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		ordered = append(ordered, p)
	}
	add(sameOrigin)
	add(override)
	for _, p := range extra {
		add(p)
	}
	if len(ordered) == 0 {
		return nil
	}
	for _, p := range builtinProxies {
		add(p)
	}
	return ordered
}

// applyProxy substitutes target into a proxy base string: a literal "{url}"
// placeholder is replaced with the percent-encoded target, otherwise target
// is appended as a "url" query parameter.
func applyProxy(proxyBase, target string) string {
	encoded := url.QueryEscape(target)
	if strings.Contains(proxyBase, "{url}") {
		return strings.ReplaceAll(proxyBase, "{url}", encoded)
	}
	sep := "?"
	if strings.Contains(proxyBase, "?") {
		sep = "&"
	}
	return proxyBase + sep + "url=" + encoded
}
