package must

import (
	"fmt"
	"log/slog"
	"os"
)

// exit is replaced in tests
var exit = os.Exit

func Assert(cond bool, failMessage string) {
	if !cond {
		slog.Error(failMessage)
		exit(1)
	}
}

func Fail(message string) {
	Assert(false, fmt.Sprintf("assertion failed: %s", message))
}

func NoError(err error) {
	if err != nil {
		Fail(err.Error())
	}
}

