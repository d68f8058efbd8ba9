// Command ingest feeds folders of PDF files and their catalog
// spreadsheet into the document collection, either as a one-shot batch
// or by watching a drop folder.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
