package logging

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"vidarr/internal/domain/consts"
)

// callerTag builds the "[Function - File : Line]" suffix used on error and
// debug messages. Skips logging package frames.
func callerTag() string {
	pc, file, line, ok := runtime.Caller(2)
	if !ok {
		return ""
	}
	file = filepath.Base(file)
	funcName := filepath.Base(runtime.FuncForPC(pc).Name())

	var b strings.Builder
	b.WriteString(" [")
	b.WriteString(consts.ColorBlue)
	b.WriteString("Function: ")
	b.WriteString(consts.ColorReset)
	b.WriteString(funcName)
	b.WriteString(" - ")
	b.WriteString(consts.ColorBlue)
	b.WriteString("File: ")
	b.WriteString(consts.ColorReset)
	b.WriteString(file)
	b.WriteString(" : ")
	b.WriteString(consts.ColorBlue)
	b.WriteString("Line: ")
	b.WriteString(consts.ColorReset)
	b.WriteString(strconv.Itoa(line))
	b.WriteString("]")
	return b.String()
}
