package session

import (
	"fmt"
	"time"

	"github.com/vibrantwave/wv/idgen"
)

var idSuffix = idgen.NanoID(6)

// NewID mints a session id of the form session_<unixms>_<suffix>. The
// timestamp keeps ids sortable by creation; the suffix disambiguates
// same-millisecond starts across editors.
func NewID() string {
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), idSuffix())
}
