package facet

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var collationTag = language.MustParse("zh-Hant-HK")

// Collators keep internal buffers and are not safe for concurrent use.
var collatorPool = sync.Pool{
	New: func() any {
		return collate.New(collationTag, collate.Numeric)
	},
}

// CompareText orders strings the way the catalog displays them: CJK-aware,
// numeric-aware, with a byte-order tie break so the order is total.
func CompareText(a string, b string) int {
	c := collatorPool.Get().(*collate.Collator)
	defer collatorPool.Put(c)
	if r := c.CompareString(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}
