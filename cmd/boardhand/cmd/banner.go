package cmd

import (
	"fmt"
	"io"
)

const banner = `
  ___                   _ _                    _ 
 | _ ) ___  __ _ _ _ __| | |_  __ _ _ _  __| |
 | _ \/ _ \/ _` + "`" + ` | '_/ _` + "`" + ` | ' \/ _` + "`" + ` | ' \/ _` + "`" + ` |
 |___/\___/\__,_|_| \__,_|_||_\__,_|_||_\__,_|
`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  Boards API mock backend - Version %s\x1b[0m\n\n", Version)
}
