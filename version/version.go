package version

import (
	"fmt"
	"io"
	"time"
)

const (
	MajorVersion int = 0
	MinorVersion int = 1
	PointVersion int = 0
)

var (
	BuildDate time.Time = time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
)

func PrintVersion(wtr io.Writer) {
	fmt.Fprintf(wtr, "Version:\t%d.%d.%d\n", MajorVersion, MinorVersion, PointVersion)
	fmt.Fprintf(wtr, "BuildDate:\t%s\n", BuildDate.Format(`2006-01-02 15:04:05`))
}
