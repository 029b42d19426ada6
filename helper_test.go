// FILE: okube-ai/settus/helper_test.go
package settus_test

import (
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
