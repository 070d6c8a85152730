// wp-import imports Wikipedia database dumps into PostgreSQL.
//
// Dump files are discovered beneath the paths given on the command line,
// grouped by language and loaded into per-language databases. See the
// import command for details.
package main

import (
	"github.com/JoKnopp/wp-import/cmd"
)

func main() {
	cmd.Execute()
}
