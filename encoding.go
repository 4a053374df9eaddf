package pgbind

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// DefaultEncoding is the client encoding set on every new or reset connection.
const DefaultEncoding = "UTF8"

// clientEncodings maps PostgreSQL client encoding names to their character sets. A nil entry means the bytes are
// passed through unchanged.
var clientEncodings = map[string]encoding.Encoding{
	"UTF8":       nil,
	"SQL_ASCII":  nil,
	"LATIN1":     charmap.ISO8859_1,
	"LATIN2":     charmap.ISO8859_2,
	"LATIN3":     charmap.ISO8859_3,
	"LATIN4":     charmap.ISO8859_4,
	"LATIN5":     charmap.ISO8859_9,
	"LATIN6":     charmap.ISO8859_10,
	"LATIN7":     charmap.ISO8859_13,
	"LATIN8":     charmap.ISO8859_14,
	"LATIN9":     charmap.ISO8859_15,
	"LATIN10":    charmap.ISO8859_16,
	"ISO_8859_5": charmap.ISO8859_5,
	"ISO_8859_6": charmap.ISO8859_6,
	"ISO_8859_7": charmap.ISO8859_7,
	"ISO_8859_8": charmap.ISO8859_8,
	"WIN866":     charmap.CodePage866,
	"WIN874":     charmap.Windows874,
	"WIN1250":    charmap.Windows1250,
	"WIN1251":    charmap.Windows1251,
	"WIN1252":    charmap.Windows1252,
	"WIN1253":    charmap.Windows1253,
	"WIN1254":    charmap.Windows1254,
	"WIN1255":    charmap.Windows1255,
	"WIN1256":    charmap.Windows1256,
	"WIN1257":    charmap.Windows1257,
	"WIN1258":    charmap.Windows1258,
	"KOI8R":      charmap.KOI8R,
	"KOI8U":      charmap.KOI8U,
	"SJIS":       japanese.ShiftJIS,
	"EUC_JP":     japanese.EUCJP,
	"EUC_KR":     korean.EUCKR,
	"GBK":        simplifiedchinese.GBK,
	"GB18030":    simplifiedchinese.GB18030,
	"BIG5":       traditionalchinese.Big5,
}

var encodingAliases = map[string]string{
	"UTF-8":       "UTF8",
	"UNICODE":     "UTF8",
	"LATIN-1":     "LATIN1",
	"ISO88591":    "LATIN1",
	"WIN":         "WIN1251",
	"KOI8":        "KOI8R",
	"SHIFTJIS":    "SJIS",
	"WINDOWS1252": "WIN1252",
}

// lookupEncoding returns the canonical name and character set of a client encoding.
func lookupEncoding(name string) (string, encoding.Encoding, error) {
	canonical := strings.ToUpper(strings.TrimSpace(name))
	if alias, ok := encodingAliases[canonical]; ok {
		canonical = alias
	}

	enc, ok := clientEncodings[canonical]
	if !ok {
		return "", nil, fmt.Errorf("pgbind: unsupported client encoding %q", name)
	}
	return canonical, enc, nil
}

func decodeText(enc encoding.Encoding, raw []byte) string {
	if enc == nil {
		return string(raw)
	}
	s, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(s)
}

func encodeText(enc encoding.Encoding, s string) (string, error) {
	if enc == nil {
		return s, nil
	}
	return enc.NewEncoder().String(s)
}
