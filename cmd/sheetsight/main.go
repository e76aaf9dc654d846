// Command sheetsight is the SheetSight API server and CLI.
package main

import "github.com/klytics/sheetsight/cmd"

func main() {
	cmd.Execute()
}
