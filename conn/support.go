package conn

import (
	"fmt"

	"github.com/aionet-io/aionet/reactor"
)

// ConnID derives the diagnostic identifier for a session. The identifier is
// stable for the session's lifetime and is used only for log correlation,
// never for equality or hashing.
func ConnID(s reactor.ISession) string {
	return fmt.Sprintf("aionet-conn-%010d", s.ID())
}
