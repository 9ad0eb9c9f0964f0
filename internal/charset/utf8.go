package charset

// IsASCII: каждый байт печатный ASCII или управляющий из \t..\r
// (TAB, LF, VT, FF, CR).
func IsASCII(text string) bool {
	for i := 0; i < len(text); i++ {
		if !isPlain(text[i]) {
			return false
		}
	}
	return true
}

func isPlain(c byte) bool {
	return (c >= '\t' && c <= '\r') || (c >= 0x20 && c <= 0x7e)
}

func isCont(c byte) bool { return c >= 0x80 && c <= 0xbf }

// IsUTF8 строже utf8.ValidString: избыточные формы и суррогаты отвергаются,
// однобайтовые символы только из набора IsASCII. NUL и прочие управляющие
// байты дают false, так UTF-16 без BOM сюда не проходит.
func IsUTF8(text string) bool {
	b := text
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case isPlain(c):
			i++
		case c >= 0xc2 && c <= 0xdf:
			if i+1 >= len(b) || !isCont(b[i+1]) {
				return false
			}
			i += 2
		case c == 0xe0:
			if i+2 >= len(b) || b[i+1] < 0xa0 || b[i+1] > 0xbf || !isCont(b[i+2]) {
				return false
			}
			i += 3
		case (c >= 0xe1 && c <= 0xec) || c == 0xee || c == 0xef:
			if i+2 >= len(b) || !isCont(b[i+1]) || !isCont(b[i+2]) {
				return false
			}
			i += 3
		case c == 0xed:
			// суррогаты
			if i+2 >= len(b) || b[i+1] < 0x80 || b[i+1] > 0x9f || !isCont(b[i+2]) {
				return false
			}
			i += 3
		case c == 0xf0:
			if i+3 >= len(b) || b[i+1] < 0x90 || b[i+1] > 0xbf || !isCont(b[i+2]) || !isCont(b[i+3]) {
				return false
			}
			i += 4
		case c >= 0xf1 && c <= 0xf3:
			if i+3 >= len(b) || !isCont(b[i+1]) || !isCont(b[i+2]) || !isCont(b[i+3]) {
				return false
			}
			i += 4
		case c == 0xf4:
			if i+3 >= len(b) || b[i+1] < 0x80 || b[i+1] > 0x8f || !isCont(b[i+2]) || !isCont(b[i+3]) {
				return false
			}
			i += 4
		default:
			return false
		}
	}
	return true
}
