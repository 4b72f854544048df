package rest

import (
	"mime"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxDownloadNameLen = 150
	upperhex           = "0123456789ABCDEF"
)

// asciiFileName folds accents ("résumé.pdf" -> "resume.pdf") and replaces what is left outside ASCII.
func asciiFileName(original string) string {
	s := strings.TrimSpace(strings.ReplaceAll(original, "\\", "/"))
	s = path.Base(s)
	if s == "." || s == "/" || s == ".." || s == "" {
		return "download"
	}

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	s, _, _ = transform.String(t, s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_' || r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), " .")
	ext := path.Ext(out)
	if strings.Trim(strings.TrimSuffix(out, ext), "_") == "" {
		return "download" + ext
	}
	if len(out) > maxDownloadNameLen {
		if len(ext) > maxDownloadNameLen/2 {
			ext = ""
		}
		out = out[:maxDownloadNameLen-len(ext)] + ext
	}

	return out
}

// contentDisposition keeps the original name in filename* when the ASCII fallback had to change it.
func contentDisposition(name string) string {
	fallback := asciiFileName(name)
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": fallback})
	if fallback != name && name != "" {
		disposition += "; filename*=UTF-8''" + encodeExtValue(name)
	}

	return disposition
}

// encodeExtValue percent-encodes every byte outside the RFC 5987 attr-char set.
func encodeExtValue(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}

	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}

	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}

func isMn(r rune) bool { return unicode.Is(unicode.Mn, r) }
