package store

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// driverName is go-sqlite3 with the regexp() SQL function installed, which
// backs the REGEXP operator emitted for $regex.
const driverName = "sqlite3_filtersql"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("regexp", regexpMatch, true)
		},
	})
}

// patterns caches compiled expressions; filters reuse a small set of patterns.
var patterns sync.Map // string -> *regexp.Regexp

// regexpMatch implements "text REGEXP pattern", which SQLite calls as
// regexp(pattern, text). A NULL text yields NULL; numbers match against their
// decimal text.
func regexpMatch(pattern, value any) (any, error) {
	p, ok := pattern.(string)
	if !ok {
		return nil, fmt.Errorf("regexp: pattern must be text, got %T", pattern)
	}
	var s string
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		s = v
	case []byte:
		// The driver hands SQL NULL over as a nil blob.
		if v == nil {
			return nil, nil
		}
		s = string(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case float64:
		s = strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return nil, fmt.Errorf("regexp: unsupported value type %T", value)
	}

	re, err := compilePattern(p)
	if err != nil {
		return nil, err
	}
	return re.MatchString(s), nil
}

func compilePattern(p string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(p); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("regexp: %w", err)
	}
	patterns.Store(p, re)
	return re, nil
}
