package syndication

import "bytes"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// hasDTD reports whether a DOCTYPE appears in the document prolog, i.e. before
// the root element. Markup inside the document body is not inspected.
func hasDTD(data []byte) bool {
	rest := bytes.TrimPrefix(data, utf8BOM)

	for {
		rest = bytes.TrimLeft(rest, " \t\r\n")
		switch {
		case bytes.HasPrefix(rest, []byte("<?")):
			end := bytes.Index(rest, []byte("?>"))
			if end < 0 {
				return false
			}
			rest = rest[end+2:]
		case bytes.HasPrefix(rest, []byte("<!--")):
			end := bytes.Index(rest, []byte("-->"))
			if end < 0 {
				return false
			}
			rest = rest[end+3:]
		case len(rest) >= 9 && bytes.EqualFold(rest[:9], []byte("<!DOCTYPE")):
			return true
		default:
			return false
		}
	}
}
