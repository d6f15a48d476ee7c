package loader

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/KaramelBytes/treedash-cli/internal/table"
)

var cacheNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("treedash/loader"))

// CacheStats reports cache activity since the loader was built.
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

// cache maps content identity to parsed datasets. Last writer wins; it is
// not safe for concurrent use.
type cache struct {
	entries map[uuid.UUID]*table.Dataset
	hits    int
	misses  int
}

func newCache() *cache {
	return &cache{entries: map[uuid.UUID]*table.Dataset{}}
}

// contentKey derives the key from the source bytes and every option that
// changes the parse result. The logical name is deliberately absent.
func contentKey(f Format, data []byte, ro readOptions, bo buildOptions) uuid.UUID {
	head := fmt.Sprintf("%s|%s|%d|%d|%t|%d|%d|%d\x00",
		f, ro.Sheet.Name, ro.Sheet.Index, bo.SkipRows, bo.DropDuplicates,
		ro.Delimiter, ro.Numbers.Decimal, ro.Numbers.Thousands)
	buf := make([]byte, 0, len(head)+len(data))
	buf = append(buf, head...)
	buf = append(buf, data...)
	return uuid.NewSHA1(cacheNamespace, buf)
}

func (c *cache) get(k uuid.UUID) (*table.Dataset, bool) {
	ds, ok := c.entries[k]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return ds.Clone(), true
}

func (c *cache) put(k uuid.UUID, ds *table.Dataset) {
	c.entries[k] = ds.Clone()
}
