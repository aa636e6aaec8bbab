package main

import "github.com/lujin3/mcp-registry-server/cmd/mcp-registry/root"

func main() {
	root.Execute()
}
