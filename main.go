package main

import "github.com/oci-logan/logan-mcp/cmd"

func main() {
	cmd.Execute()
}
